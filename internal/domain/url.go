package domain

import (
	"regexp"
	"strconv"
)

var (
	inputURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^udp://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d+$`),
		regexp.MustCompile(`^https?://.+`),
		regexp.MustCompile(`^rtmp://.+`),
		regexp.MustCompile(`^srt://.+`),
	}
	inputURLParts = regexp.MustCompile(`^(\w+)://([^:/]+):?(\d+)?`)
)

// IsValidInputURL accepts udp://ip:port and http(s), rtmp and srt URLs.
func IsValidInputURL(raw string) bool {
	for _, p := range inputURLPatterns {
		if p.MatchString(raw) {
			return true
		}
	}
	return false
}

// InputURL is the scheme / host / port split of a stream URL.
type InputURL struct {
	Protocol string
	Host     string
	Port     *int
}

// ParseInputURL splits raw; ok is false when it is not scheme://host form.
func ParseInputURL(raw string) (InputURL, bool) {
	m := inputURLParts.FindStringSubmatch(raw)
	if m == nil {
		return InputURL{}, false
	}
	u := InputURL{Protocol: m[1], Host: m[2]}
	if m[3] != "" {
		if p, err := strconv.Atoi(m[3]); err == nil {
			u.Port = &p
		}
	}
	return u, true
}
