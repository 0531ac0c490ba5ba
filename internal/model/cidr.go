package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
)

// CIDRList is a list of allowed IP networks in CIDR notation, persisted as a
// JSON array in a single text column.
type CIDRList []string

// Validate checks every entry parses as a CIDR prefix. A bare address is
// accepted and normalized to a single-host prefix.
func (l CIDRList) Validate() error {
	for i, entry := range l {
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return fmt.Errorf("allowed_ips[%d]: %q is not a valid CIDR network or IP address", i, entry)
		}
		bits := 32
		if addr.Is6() {
			bits = 128
		}
		l[i] = netip.PrefixFrom(addr, bits).String()
	}
	return nil
}

// Scan implements sql.Scanner, decoding the JSON array column.
func (l *CIDRList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CIDRList", src)
	}
	if len(data) == 0 || strings.TrimSpace(string(data)) == "" {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer. Empty lists are stored as NULL so that
// "no allow-list" and "empty allow-list" are indistinguishable, both meaning
// all addresses admitted.
func (l CIDRList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
