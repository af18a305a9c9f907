// Package devicelink implements the ESP32 device connection: a TCP
// listener accepting a single persistent newline-delimited text stream,
// frame reassembly from arbitrary fragmentation, line classification,
// and the session state machine tracking handshake and latest readings.
//
// # Architecture
//
//	device socket -> Reassembler -> Classify -> Session -> Sink
//
// The Reassembler and Classify are pure and synchronous; all connection
// state lives in Session, which is safe for concurrent use (the TCP read
// loop, HTTP handlers, and status queries all touch it).
//
// # Protocol
//
// Inbound lines from the device:
//   - "ESP32 has connected!" confirms the handshake
//   - "TEMP: 23.5 C, HUM: 60.0 %" carries a sensor reading
//   - "SEED: 42.5 %" reports the hopper fill level
//   - "ALERT:LOW_SEED:Seed level below 10%" raises a firmware alert
//   - anything else is logged and ignored
//
// Outbound commands are single lines terminated with \n:
//   - "FEED=<amount>" triggers a feed cycle
//   - "INTERVAL=<ms>" changes the reporting interval
//
// There is no acknowledgment protocol in either direction. A new inbound
// connection supersedes the previous one; the single device slot follows
// the most recent dialer.
//
// # Usage
//
//	session := devicelink.NewSession(cfg.Device, sink, logger)
//	session.SetOnStateChange(sink.HandleStateChange)
//	listener := devicelink.NewListener(cfg.Device, session, logger)
//	if err := listener.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close()
//
//	// From HTTP handlers:
//	ok := session.SendCommand("FEED=5")
//	snap := session.Snapshot()
package devicelink
