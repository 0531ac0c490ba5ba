package cli

import "testing"

func TestKeyCommandSet(t *testing.T) {
	cmd := newKeyCmd()

	got := map[string]bool{}
	for _, sub := range cmd.Commands() {
		got[sub.Name()] = true
	}

	for _, name := range []string{"create", "list", "rotate", "revoke", "delete"} {
		if !got[name] {
			t.Errorf("key command is missing the %q subcommand", name)
		}
	}
}
