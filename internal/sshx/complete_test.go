package sshx

import (
	"context"
	"reflect"
	"testing"
)

func TestParseCompletionInput(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		dir    string
		isPath bool
		wantD  string
		wantP  string
	}{
		{"empty", "", "/home/a", false, "", ""},
		{"command name", "gre", "/home/a", false, "", "gre"},
		{"second token of plain command", "echo hel", "/home/a", false, "", "hel"},
		{"file op argument", "cat no", "/home/a", true, "/home/a", "no"},
		{"dotted token", "./ru", "/home/a", true, "/home/a/", "ru"},
		{"absolute path", "cat /etc/hos", "/home/a", true, "/etc/", "hos"},
		{"relative subdir", "cat src/ma", "/home/a", true, "/home/a/src/", "ma"},
		{"explicit dot slash", "cat ./src/ma", "/home/a", true, "/home/a/src/", "ma"},
		{"tilde path", "ls ~/pro", "/home/a", true, "~/", "pro"},
		{"parent traversal falls back", "cat ../x/fi", "/home/a", true, "/home/a", "fi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isPath, dir, prefix := parseCompletionInput(tc.input, tc.dir)
			if isPath != tc.isPath || dir != tc.wantD || prefix != tc.wantP {
				t.Fatalf("parseCompletionInput(%q)=(%v,%q,%q) want (%v,%q,%q)",
					tc.input, isPath, dir, prefix, tc.isPath, tc.wantD, tc.wantP)
			}
		})
	}
}

func TestLongestCommonPrefix(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"single"}, "single"},
		{[]string{"note", "notes", "notebook"}, "note"},
		{[]string{"abc", "xyz"}, ""},
	}
	for _, tc := range cases {
		if got := longestCommonPrefix(tc.in); got != tc.want {
			t.Fatalf("longestCommonPrefix(%v)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildCompletedInput(t *testing.T) {
	cases := []struct {
		name     string
		original string
		lastPart string
		complete string
		isPath   bool
		dir      string
		want     string
	}{
		{"command", "gre", "gre", "grep", false, "", "grep"},
		{"path in home", "cat no", "no", "notes.txt", true, "~", "cat ~/notes.txt"},
		{"path in dir", "cat no", "no", "notes.txt", true, "/home/a", "cat /home/a/notes.txt"},
		{"path with slash", "cat /etc/hos", "/etc/hos", "hosts", true, "/etc/", "cat /etc/hosts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := buildCompletedInput(tc.original, tc.lastPart, tc.complete, tc.isPath, tc.dir)
			if got != tc.want {
				t.Fatalf("buildCompletedInput=%q want %q", got, tc.want)
			}
		})
	}
}

func TestCollectMatches(t *testing.T) {
	out := "/etc/hosts\n/etc/hostname\n/etc/hosts\n\n"
	got := collectMatches(out, "host", true)
	want := []string{"hostname", "hosts"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("collectMatches=%v want %v", got, want)
	}
}

func TestCompleteUniqueMatchReplacesInput(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "notes.txt\n", 0, nil
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Complete(context.Background(), "srv", "cat no", "/home/a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.CompletedInput != "cat /home/a/notes.txt" {
		t.Fatalf("completed=%q", res.CompletedInput)
	}
	if res.ShowMatches || len(res.Matches) != 0 {
		t.Fatalf("unexpected match list: %+v", res)
	}
}

func TestCompleteExtendsToCommonPrefix(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "notes.txt\nnotes.bak\n", 0, nil
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Complete(context.Background(), "srv", "cat no", "/home/a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.CompletedInput != "cat /home/a/notes." {
		t.Fatalf("completed=%q", res.CompletedInput)
	}
}

func TestCompleteAmbiguousShowsMatches(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "grep\ngroups\n", 0, nil
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Complete(context.Background(), "srv", "gr", "/home/a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.CompletedInput != "" {
		t.Fatalf("completed=%q", res.CompletedInput)
	}
	if !res.ShowMatches || !reflect.DeepEqual(res.Matches, []string{"grep", "groups"}) {
		t.Fatalf("matches=%+v", res)
	}
}

func TestCompleteNonZeroProbeYieldsNothing(t *testing.T) {
	remote := &fakeRemote{respond: func(string) (string, int, error) {
		return "", 1, nil
	}}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Complete(context.Background(), "srv", "cat no", "/home/a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.CompletedInput != "" || res.ShowMatches {
		t.Fatalf("res=%+v", res)
	}
}

func TestCompleteBlankInputYieldsNothing(t *testing.T) {
	remote := &fakeRemote{}
	p := newTestPool(remote)
	connectTestServer(t, p, "srv")

	res, err := p.Complete(context.Background(), "srv", "   ", "/home/a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.CompletedInput != "" || res.ShowMatches || len(remote.commands) != 0 {
		t.Fatalf("blank input probed the remote: %+v %v", res, remote.commands)
	}
}
