package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors a temperature/humidity sample into the
// "readings" measurement, tagged by device. Non-blocking; the point is
// batched and sent asynchronously.
func (c *Client) WriteReading(deviceID string, temperature, humidity float64) {
	c.writePoint(write.NewPoint(
		"readings",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{
			"temperature": temperature,
			"humidity":    humidity,
		},
		time.Now(),
	))
}

// WriteSeedLevel mirrors a hopper fill percentage into the "seed_level"
// measurement.
func (c *Client) WriteSeedLevel(deviceID string, level float64) {
	c.writePoint(write.NewPoint(
		"seed_level",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"level": level},
		time.Now(),
	))
}

// writePoint queues one point, dropping it when disconnected.
func (c *Client) writePoint(point *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writes.WritePoint(point)
}
