package model

// Process is one row of a process table snapshot: the identity of an OS
// process plus the resource usage the OS reported for it at listing time.
type Process struct {
	PID        int     `json:"pid" yaml:"pid"`
	PPID       int     `json:"ppid" yaml:"ppid"`
	Name       string  `json:"name" yaml:"name"` // executable path or name, may contain spaces
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemPercent float64 `json:"mem_percent" yaml:"mem_percent"`
}
