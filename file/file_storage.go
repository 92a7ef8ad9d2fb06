package file

import (
	"fmt"
	"io"
	"net/textproto"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

type LocalFileSystem struct {
}

func (fs *LocalFileSystem) Exists(fileName string) (bool, error) {
	_, err := os.Stat(fileName)
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (fs *LocalFileSystem) Open(fileName, encoding string) (io.ReadCloser, error) {
	if err := checkEncoding(encoding); err != nil {
		return nil, err
	}
	return os.Open(fileName)
}

func (fs *LocalFileSystem) String() string {
	return LocalFileStorage
}

//FTPFileSystem reads input files from an FTP server
type FTPFileSystem struct {
	Host        string
	Port        int
	User        string
	Password    string
	ConnTimeout time.Duration
}

func (fs *FTPFileSystem) connect() (*ftp.ServerConn, error) {
	timeout := fs.ConnTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c, err := ftp.Dial(fmt.Sprintf("%s:%d", fs.Host, fs.Port), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, errors.Wrapf(err, "connect ftp server %s:%d", fs.Host, fs.Port)
	}
	if err = c.Login(fs.User, fs.Password); err != nil {
		_ = c.Quit()
		return nil, errors.Wrapf(err, "login ftp server %s:%d", fs.Host, fs.Port)
	}
	return c, nil
}

func (fs *FTPFileSystem) Exists(fileName string) (bool, error) {
	c, err := fs.connect()
	if err != nil {
		return false, err
	}
	defer c.Quit()

	_, err = c.FileSize(fileName)
	if err == nil {
		return true, nil
	}
	if e, ok := err.(*textproto.Error); ok && e.Code == ftp.StatusFileUnavailable {
		return false, nil
	}
	return false, err
}

//Open the connection stays open until the returned reader is closed
func (fs *FTPFileSystem) Open(fileName, encoding string) (io.ReadCloser, error) {
	if err := checkEncoding(encoding); err != nil {
		return nil, err
	}
	c, err := fs.connect()
	if err != nil {
		return nil, err
	}
	resp, err := c.Retr(fileName)
	if err != nil {
		_ = c.Quit()
		return nil, errors.Wrapf(err, "retrieve %v", fileName)
	}
	return &ftpReadCloser{resp: resp, conn: c}, nil
}

func (fs *FTPFileSystem) String() string {
	return fmt.Sprintf("%s(%s:%d)", FTPFileStorage, fs.Host, fs.Port)
}

type ftpReadCloser struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReadCloser) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpReadCloser) Close() error {
	err := r.resp.Close()
	if e := r.conn.Quit(); err == nil {
		err = e
	}
	return err
}
