package aggregate

import (
	"strings"

	"tripledger/internal/core"
)

// RemarksSeparator joins remarks for consumers that expect a single string.
const RemarksSeparator = "; "

// RemarksCollector keeps the first spelling of each distinct remark from the
// allow-listed categories, in the order seen.
type RemarksCollector struct {
	seen  map[string]struct{}
	items []string
}

func NewRemarksCollector() *RemarksCollector {
	return &RemarksCollector{seen: make(map[string]struct{})}
}

// Add records remark if its category keeps remarks. Reports whether it was new.
func (c *RemarksCollector) Add(cat core.Category, remark string) bool {
	if !cat.KeepsRemarks() {
		return false
	}
	remark = strings.Join(strings.Fields(remark), " ")
	if remark == "" || strings.EqualFold(remark, "nan") {
		return false
	}
	k := strings.ToLower(remark)
	if _, ok := c.seen[k]; ok {
		return false
	}
	c.seen[k] = struct{}{}
	c.items = append(c.items, remark)
	return true
}

// List returns the collected remarks. Never nil.
func (c *RemarksCollector) List() []string {
	return append([]string{}, c.items...)
}

// Joined returns the legacy single-string form.
func (c *RemarksCollector) Joined() string {
	return strings.Join(c.items, RemarksSeparator)
}
