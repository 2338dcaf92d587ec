package RTSP

import (
	"sort"
	"strconv"
	"strings"
)

// Header keys are stored lower-cased, so every lookup is an exact match.
type Header map[string]string

func lower(s string) string {
	return strings.ToLower(s)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func (h Header) Get(name string) string {
	return h[lower(name)]
}

func (h Header) Lookup(name string) (string, bool) {
	v, ok := h[lower(name)]
	return v, ok
}

func (h Header) Set(name, value string) {
	h[lower(name)] = value
}

func (h Header) Del(name string) {
	delete(h, lower(name))
}

// CanonicalName gives the wire spelling of a stored key.
func CanonicalName(key string) string {
	if name, ok := canonicalHeaders[key]; ok {
		return name
	}
	parts := strings.Split(key, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// write emits the headers in a stable order, skipping the given keys.
func (h Header) write(sb *strings.Builder, skip ...string) {
	keys := make([]string, 0, len(h))
next:
	for k := range h {
		for _, s := range skip {
			if k == s {
				continue next
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(CanonicalName(k))
		sb.WriteString(": ")
		sb.WriteString(h[k])
		sb.WriteString("\r\n")
	}
}

func parseCSeq(h Header) (int, bool) {
	v, ok := h.Lookup(CSeq)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}
