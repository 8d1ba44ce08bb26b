// Package launcher starts and stops the external VNC and RDP viewers.
//
// At most one viewer session exists at a time. Connecting while a session
// is open closes the old viewer first. Each viewer runs in its own process
// group so that disconnecting also stops any helpers it spawned: the group
// gets SIGTERM, then SIGKILL once the graceful timeout expires.
//
// Viewer output is forwarded to the logger at debug level.
//
// Example usage:
//
//	l := launcher.New(launcher.Config{
//	    Clients: cfg.Clients,
//	    OnStop: func(s launcher.Session, err error) {
//	        log.Printf("viewer for %s exited: %v", s.DeviceName, err)
//	    },
//	})
//	session, err := l.Connect(ctx, dev)
//	...
//	defer l.Close()
package launcher
