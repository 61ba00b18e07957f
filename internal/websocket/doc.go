// Package websocket pushes catalog and selection changes to browser clients.
//
// A Hub owns the client set and runs one loop that registers, unregisters
// and fans out messages. Subscribe Hub.OnStoreChange to the catalog store and
// mount the Hub itself on the websocket route.
package websocket
