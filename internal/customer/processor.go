package customer

import (
	"strconv"
	"strings"

	"github.com/chararch/chunkbatch"
)

//UnknownTier customers with this legacy tier are not migrated
const UnknownTier = "UnknownTier"

var tierMapping = map[string]string{
	"Gold":     "Premium",
	"Silver":   "Standard",
	"Bronze":   "Basic",
	"Platinum": "Elite",
}

//MapLoyaltyTier legacy tier to the new tier, names must match exactly, "Unknown" when there is no mapping
func MapLoyaltyTier(tier string) string {
	if t, ok := tierMapping[tier]; ok {
		return t
	}
	return "Unknown"
}

//NormalizePhone keeps the digits of a phone number
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

//Processor turns a *CsvRow into a *Customer
type Processor struct {
}

func (p *Processor) Process(item interface{}, chunkCtx *chunkbatch.ChunkContext) (chunkbatch.ProcessResult, chunkbatch.BatchError) {
	row, ok := item.(*CsvRow)
	if !ok {
		return chunkbatch.ProcessResult{}, chunkbatch.NewBatchError(chunkbatch.ErrCodeProcess, "unexpected item type:%T", item)
	}
	if strings.EqualFold(strings.TrimSpace(row.LoyaltyTier), UnknownTier) {
		return chunkbatch.Filter("loyalty tier " + UnknownTier), nil
	}
	id, err := strconv.ParseInt(row.Id, 10, 64)
	if err != nil {
		return chunkbatch.ProcessResult{}, chunkbatch.NewBatchError(chunkbatch.ErrCodeProcess, "invalid customer id:%q", row.Id, err)
	}
	if !strings.Contains(row.Email, "@") {
		return chunkbatch.ProcessResult{}, chunkbatch.NewBatchError(chunkbatch.ErrCodeProcess, "customer:%d", id, &ValidationError{Field: "email", Value: row.Email})
	}
	return chunkbatch.Accept(&Customer{
		Id:             id,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Email:          row.Email,
		Phone:          NormalizePhone(row.Phone),
		NewLoyaltyTier: MapLoyaltyTier(row.LoyaltyTier),
	}), nil
}
