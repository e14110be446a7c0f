// Package boot drives the selected providers through the four boot phases:
// configure, prepare, start and notify-after-completed.
//
// Every phase finishes for all providers before the next phase begins for
// any of them. Prepare and start follow the execution order computed by the
// graph package, so a provider always finds the services its required
// modules published in the same or an earlier phase. The first failure ends
// the boot; nothing is rolled back and no later provider runs. The failure is
// returned as *Error, naming the phase, the module and the provider.
package boot
