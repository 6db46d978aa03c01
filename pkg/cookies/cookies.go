// Package cookies loads browser-exported cookies for the XiaoHongShu web API.
//
// Two file formats are accepted: the list format produced by browser
// extensions ([{"name": ..., "value": ...}, ...]) and a flat name-to-value
// map. The `a1` cookie carries the device ID required by the token server.
package cookies

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
)

// DeviceIDCookie is the cookie holding the device ID the token server signs for
const DeviceIDCookie = "a1"

// Cookie represents a single browser-exported cookie
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
}

// Jar holds the loaded cookie set
type Jar struct {
	cookies []Cookie
	values  map[string]string
}

// Load reads a cookies file
func Load(path string) (*Jar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cookies file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	return Parse(data)
}

// Parse decodes cookie data in either the list or the map format
func Parse(data []byte) (*Jar, error) {
	var list []Cookie
	if err := json.Unmarshal(data, &list); err == nil {
		return fromList(list), nil
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err == nil {
		return fromMap(flat), nil
	}

	return nil, fmt.Errorf("cookies file is neither a cookie list nor a name/value map")
}

func fromList(list []Cookie) *Jar {
	values := make(map[string]string, len(list))
	for _, c := range list {
		values[c.Name] = c.Value
	}
	return &Jar{cookies: list, values: values}
}

func fromMap(flat map[string]string) *Jar {
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]Cookie, 0, len(flat))
	for _, name := range names {
		cookies = append(cookies, Cookie{Name: name, Value: flat[name]})
	}
	return &Jar{cookies: cookies, values: flat}
}

// Get returns the value of a named cookie
func (j *Jar) Get(name string) string {
	return j.values[name]
}

// Len returns the number of loaded cookies
func (j *Jar) Len() int {
	return len(j.cookies)
}

// DeviceID extracts the a1 device ID; it is required to request tokens
func (j *Jar) DeviceID() (string, error) {
	a1 := j.values[DeviceIDCookie]
	if a1 == "" {
		return "", fmt.Errorf("device ID (%s) not found in cookies", DeviceIDCookie)
	}
	return a1, nil
}

// HTTPCookies returns the standard library representation of the jar
func (j *Jar) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out
}

// Header renders the jar as a Cookie request header value
func (j *Jar) Header() string {
	pairs := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		pairs = append(pairs, fmt.Sprintf("%s=%s", c.Name, c.Value))
	}
	return strings.Join(pairs, "; ")
}
