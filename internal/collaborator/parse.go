package collaborator

import (
	"errors"
	"strings"
	"unicode"
)

// ErrUnclosedQuote is returned by SplitArgs for an unterminated quote.
var ErrUnclosedQuote = errors.New("unclosed quotes")

// parseDevices extracts ready device serials from `adb devices` output.
// The header line is skipped, only "device" state lines are kept, and
// mDNS service names are dropped.
func parseDevices(out string) []string {
	devices := []string{}
	lines := strings.Split(out, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		if !strings.Contains(line, "\tdevice") {
			continue
		}
		serial := strings.TrimSpace(strings.SplitN(line, "\t", 2)[0])
		if serial == "" || strings.Contains(serial, "._tcp") || strings.Contains(serial, "._udp") {
			continue
		}
		devices = append(devices, serial)
	}
	return devices
}

// parseMdns extracts services from `adb mdns services` output, keeping the
// first occurrence of each name/service/address triple.
func parseMdns(out string) []MdnsService {
	services := []MdnsService{}
	seen := make(map[MdnsService]bool)
	lines := strings.Split(out, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		svc := MdnsService{
			Name:    strings.TrimSpace(parts[0]),
			Service: strings.TrimSpace(parts[1]),
			Address: strings.TrimSpace(parts[2]),
		}
		if seen[svc] {
			continue
		}
		seen[svc] = true
		services = append(services, svc)
	}
	return services
}

// SplitArgs splits a command line on whitespace, treating double-quoted
// spans as part of one argument. Quotes themselves are dropped.
func SplitArgs(s string) ([]string, error) {
	var (
		args     []string
		current  strings.Builder
		inQuotes bool
	)
	for _, c := range s {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case unicode.IsSpace(c) && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	if inQuotes {
		return nil, ErrUnclosedQuote
	}
	return args, nil
}
