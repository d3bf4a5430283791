package source

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
)

// loadFTP retrieves a delimited-text file from an FTP server.
// Dataloggers in the field commonly drop their CSV exports on one.
// Credentials come from the URL userinfo; anonymous otherwise.
func loadFTP(descriptor string) ([]Record, error) {
	u, err := url.Parse(descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrSourceUnavailable, descriptor, err)
	}

	addr := u.Host
	if u.Port() == "" {
		addr += ":21"
	}

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrSourceUnavailable, addr, err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("%w: login %s: %v", ErrSourceUnavailable, addr, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve %s: %v", ErrSourceUnavailable, descriptor, err)
	}
	defer resp.Close()

	return parseDelimited(resp, descriptor)
}
