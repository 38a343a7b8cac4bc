package app

import "testing"

func TestParseCommand_KnownCommands(t *testing.T) {
	cases := []struct {
		args []string
		want Command
	}{
		{[]string{"serve"}, CommandServe},
		{[]string{"migrate"}, CommandMigrate},
		{[]string{"healthcheck"}, CommandHealthcheck},
	}
	for _, tc := range cases {
		if got := ParseCommand(tc.args); got != tc.want {
			t.Errorf("ParseCommand(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

func TestParseCommand_NoArgs_DefaultsToServe(t *testing.T) {
	if got := ParseCommand(nil); got != CommandServe {
		t.Errorf("ParseCommand(nil) = %q, want %q", got, CommandServe)
	}
}

func TestParseCommand_UnknownCommand_DefaultsToServe(t *testing.T) {
	if got := ParseCommand([]string{"unknown"}); got != CommandServe {
		t.Errorf("ParseCommand = %q, want %q", got, CommandServe)
	}
}
