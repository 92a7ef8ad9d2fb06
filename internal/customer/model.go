package customer

import "fmt"

//CsvRow a line of the legacy customer export
type CsvRow struct {
	Id          string `header:"id"`
	FirstName   string `header:"firstName"`
	LastName    string `header:"lastName"`
	Email       string `header:"email"`
	Phone       string `header:"phone"`
	LoyaltyTier string `header:"loyaltyTier"`
}

//Customer a row of the customers table
type Customer struct {
	Id             int64
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	NewLoyaltyTier string
}

func (c *Customer) String() string {
	return fmt.Sprintf("Customer{id:%d, email:%s, tier:%s}", c.Id, c.Email, c.NewLoyaltyTier)
}

//ValidationError a field value the target schema does not accept
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
