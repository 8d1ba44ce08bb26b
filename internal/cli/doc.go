// Package cli implements heimdallctl, the command-line front end of the
// Heimdall backend.
//
// Commands talk to the backend through apiclient and keep their working set
// in a devicestore.Store, the same data layer a graphical front end uses:
//
//	heimdallctl devices list --protocol rdp --group
//	heimdallctl devices add --name "Control room" --address 10.0.0.5 --protocol vnc
//	heimdallctl connect            # fuzzy picker
//	heimdallctl connect desk       # exact id, or unique name match
//	heimdallctl config set clients.rdp_viewer=/usr/bin/wlfreerdp
//	heimdallctl watch
//
// The backend URL comes from --url or $HEIMDALL_API_URL.
package cli
