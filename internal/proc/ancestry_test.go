package proc

import (
	"testing"

	"github.com/pranshuparmar/taskman/pkg/model"
)

func TestResolveAncestry(t *testing.T) {
	procs := []model.Process{
		{PID: 1, PPID: 0, Name: "init"},
		{PID: 50, PPID: 1, Name: "sshd"},
		{PID: 51, PPID: 50, Name: "bash"},
		{PID: 52, PPID: 51, Name: "vim"},
		{PID: 90, PPID: 77, Name: "orphan"}, // parent already reaped
		{PID: 60, PPID: 61, Name: "loop-a"},
		{PID: 61, PPID: 60, Name: "loop-b"},
	}

	tests := []struct {
		name    string
		pid     int
		want    []int
		wantErr bool
	}{
		{"full chain", 52, []int{1, 50, 51, 52}, false},
		{"init", 1, []int{1}, false},
		{"missing parent", 90, []int{90}, false},
		{"cycle", 60, []int{61, 60}, false},
		{"unknown pid", 999, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := ResolveAncestry(procs, tt.pid)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveAncestry() error = %v, wantErr %v", err, tt.wantErr)
			}
			var got []int
			for _, p := range chain {
				got = append(got, p.PID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("chain = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chain = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
