package RTSP

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	realmRex = regexp.MustCompile(`realm="(.*?)"`)
	nonceRex = regexp.MustCompile(`nonce="(.*?)"`)
)

// Digest answers a WWW-Authenticate challenge with the credentials carried
// in rawUrl. Basic challenges are answered in the clear.
func Digest(method Method, authLine string, rawUrl string) (string, error) {
	l, err := url.Parse(rawUrl)
	if err != nil {
		return "", err
	}
	if l.User == nil {
		return "", errors.New("no credentials in url")
	}
	username := l.User.Username()
	password, _ := l.User.Password()
	l.User = nil
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(authLine)), "basic") {
		return "Basic " + basicToken(username, password), nil
	}
	realm := realmRex.FindStringSubmatch(authLine)
	if len(realm) != 2 {
		return "", errors.New("authline not found realm")
	}
	nonce := nonceRex.FindStringSubmatch(authLine)
	if len(nonce) != 2 {
		return "", errors.New("authline not found nonce")
	}
	uri := l.String()
	ha1 := fmt.Sprintf("%x", md5.Sum([]byte(username+":"+realm[1]+":"+password)))
	ha2 := fmt.Sprintf("%x", md5.Sum([]byte(string(method)+":"+uri)))
	response := fmt.Sprintf("%x", md5.Sum([]byte(ha1+":"+nonce[1]+":"+ha2)))
	return fmt.Sprintf(`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		username, realm[1], nonce[1], uri, response), nil
}

func basicToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
