package models

// SSHRestartConfig holds SSH reboot configuration, for routers whose firmware
// exposes a shell but no HTTP restart endpoint.
type SSHRestartConfig struct {
	Host       string // defaults to the router address
	Port       int
	Username   string
	PrivateKey []byte // loaded from file path
	KeyPath    string // path to key file
	Command    string // reboot command, default "reboot"
}

// SSHResult holds the result of an SSH operation.
type SSHResult struct {
	CommandRun bool
	Output     string
	Error      error
}
