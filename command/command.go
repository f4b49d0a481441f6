// Package command implements the high-level command grammar carried in a
// host message. A batch is a space-separated list of tokens; each token is
// underscore-separated with the command kind first, e.g. LA_7_0_100.
package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	// LiquidApplication aspirates a volume from a slot or external source
	// and dispenses it.
	LiquidApplication Kind = "LA"
	// Wait blocks the batch for a number of milliseconds.
	Wait Kind = "W"
	// TempChange and BottomTempChange are accepted but unimplemented.
	TempChange       Kind = "TC"
	BottomTempChange Kind = "BTC"
)

// Command is one parsed token. Fields beyond the kind keep their raw text;
// typed accessors parse them on demand.
type Command struct {
	Kind   Kind
	Raw    string
	fields []string
}

// Tokenize splits a message's data into parsed commands, one per
// space-separated token.
func Tokenize(data string) []Command {
	tokens := strings.Split(data, " ")
	cmds := make([]Command, len(tokens))
	for i, tok := range tokens {
		cmds[i] = Parse(tok)
	}
	return cmds
}

// Parse splits one token on '_'. The first field is the kind; the rest are
// kept for the typed accessors.
func Parse(token string) Command {
	parts := strings.Split(token, "_")
	return Command{
		Kind:   Kind(parts[0]),
		Raw:    token,
		fields: parts[1:],
	}
}

func (c Command) field(i int) (string, error) {
	if i >= len(c.fields) {
		return "", fmt.Errorf("command %q is missing field %d", c.Raw, i+1)
	}
	return c.fields[i], nil
}

// SlotID is the LA token's first field: the source slot, decimal.
func (c Command) SlotID() (int, error) {
	f, err := c.field(0)
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("command %q has invalid slot ID %q", c.Raw, f)
	}
	return id, nil
}

// Volume is the LA token's third field: microliters to apply, decimal. The
// second field is reserved and ignored.
func (c Command) Volume() (int, error) {
	f, err := c.field(2)
	if err != nil {
		return 0, err
	}
	vol, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("command %q has invalid volume %q", c.Raw, f)
	}
	return vol, nil
}

// WaitDuration is the W token's first field, in milliseconds.
func (c Command) WaitDuration() (time.Duration, error) {
	f, err := c.field(0)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseUint(f, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("command %q has invalid duration %q", c.Raw, f)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
