// Package os probes host services over the systemd D-Bus API.
package os

import (
	"context"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// ServiceActiveState returns the ActiveState of the specified service, such
// as "active", "inactive" or "failed".
// The service name can be provided with or without the .service suffix.
func ServiceActiveState(ctx context.Context, name string) (string, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return "", ErrSystemdConnection.Wrap(err, "failed to connect to systemd")
	}
	defer conn.Close()

	serviceName := ensureServiceSuffix(name)

	props, err := conn.GetUnitPropertiesContext(ctx, serviceName)
	if err != nil {
		return "", ErrSystemdOperation.Wrap(err, "failed to query service %s", serviceName).
			WithProperty(ServiceProperty, serviceName)
	}

	state, ok := props["ActiveState"].(string)
	if !ok {
		return "", ErrSystemdOperation.New("service %s reported no ActiveState", serviceName).
			WithProperty(ServiceProperty, serviceName)
	}

	return state, nil
}

// IsServiceRunning checks if the specified service is running.
// The service name can be provided with or without the .service suffix.
func IsServiceRunning(ctx context.Context, name string) (bool, error) {
	state, err := ServiceActiveState(ctx, name)
	if err != nil {
		return false, err
	}

	return state == "active", nil
}

// ensureServiceSuffix ensures the service name has the .service suffix.
// If the name already has the suffix, it returns it unchanged.
func ensureServiceSuffix(name string) string {
	if !strings.HasSuffix(name, ".service") {
		return name + ".service"
	}
	return name
}
