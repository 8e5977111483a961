package session

import (
	"fmt"
	"strings"
)

// Role classifies a container at discovery time. Downstream code switches on
// the tag instead of re-matching name patterns.
type Role string

const (
	RolePeer  Role = "peer"
	RoleOther Role = "other"
)

// ContainerRecord is a read-only snapshot of one container discovered during a
// test run: its name, address, environment, and the compose service that
// spawned it.
type ContainerRecord struct {
	Name      string
	IPAddress string
	Env       []string // KEY=VALUE pairs, in inspect order
	Service   string
	Role      Role
}

// EnvValue returns the value of key in the record's environment. A missing key
// is a hard error; there is no default.
func (r ContainerRecord) EnvValue(key string) (string, error) {
	prefix := key + "="
	for _, kv := range r.Env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix), nil
		}
	}
	return "", NewEnvNotFoundError(key, r.Name)
}

func (r ContainerRecord) String() string {
	return fmt.Sprintf("%s - %s", r.Name, r.IPAddress)
}
