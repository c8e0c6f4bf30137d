package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient builds a Consul client from the standard CONSUL_* environment
// (CONSUL_HTTP_ADDR and friends).
func NewClient() (*consulapi.Client, error) {
	client, err := consulapi.NewClient(consulapi.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this process with the local agent so gateways
// can discover it.
func RegisterService(client *consulapi.Client, name, id, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: address,
		Port:    port,
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service %s: %w", name, err)
	}
	return nil
}

// DeregisterService removes the registration on shutdown.
func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", id, err)
	}
	return nil
}
