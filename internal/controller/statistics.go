package controller

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-controller/internal/entity"
)

// Statistics renders the registry summary logged after ApiExpose and
// served at GET /api/v1/statistics.
func (c *Controller) Statistics() string {
	var b strings.Builder
	b.WriteString("Controller statistics after initialization:\n")

	writeCounts(&b, "Device", c.devices.Len(), c.devices.CountByKind())
	writeCounts(&b, "Actuator", c.actuators.Len(), c.actuators.CountByKind())
	writeCounts(&b, "Automation", c.automations.Len(), c.automations.CountByKind())

	fmt.Fprintf(&b, "- Areas total=%d\n", c.areas.Len())
	for _, a := range c.areas.All() {
		fmt.Fprintf(&b, "- Area '%s', Actuators=%d\n", a.ID(), len(a.Actuators()))
	}
	return b.String()
}

func writeCounts(b *strings.Builder, label string, total int, counts []entity.KindCount) {
	fmt.Fprintf(b, "- %ss total=%d\n", label, total)
	for _, kc := range counts {
		fmt.Fprintf(b, "- %s '%s'=%d\n", label, kc.Kind, kc.Count)
	}
}
