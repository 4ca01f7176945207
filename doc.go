// Package psdebug is a namespaced debug logger. Every Logger belongs to a
// namespace such as "app:http:router" and stays silent unless that namespace
// matches the pattern list its Registry was enabled with.
//
// # Patterns
//
// A pattern list is split on commas and whitespace. A '*' matches any run of
// characters and a leading '-' turns a pattern into a skip:
//
//	DEBUG=app:*,-app:db:*   # everything under app except the database layer
//	DEBUG=*                 # everything
//	DEBUG=-*                # nothing
//
// Skips always win over enables, whatever their order. Registry.Disable
// returns the active list in a form Registry.Enable accepts, so a list can be
// suspended and restored:
//
//	prev := psdebug.Disable()
//	runQuietly()
//	psdebug.Enable(prev)
//
// # Loggers
//
// Loggers are cached per namespace. Enable and Disable recompute the enabled
// flag of every logger already handed out, so package-level loggers created
// at init time follow later pattern changes. A disabled logger returns before
// formatting, which keeps dormant debug calls cheap.
//
//	var log = psdebug.New("app:http")
//
//	func serve() {
//		log.Printf("listening on %s", addr)
//		route := log.Extend("router") // app:http:router
//		route.Print("matched %s %s", method, path)
//	}
//
// Messages end with the time elapsed since the same logger last emitted
// ("+12ms"). Format verbs are %s, %d/%i, %j (JSON), %o (one-line inspection)
// and %O (multi-line dump); Registry.SetFormatter adds more. An error passed
// as the first argument prints its stack trace when it carries one
// (github.com/pkg/errors errors do).
//
// # Environment
//
// The default registry (Default, and the package-level New, Enable, Disable)
// reads DEBUG and the DEBUG_* settings documented on RegistryFromEnv the first
// time it is used. Colour is on when the output is a terminal unless NO_COLOR
// or DEBUG_COLORS=false say otherwise.
//
// Tests usually build their own registry so they do not share state:
//
//	var buf bytes.Buffer
//	reg := psdebug.NewRegistry(psdebug.Options{Writer: &buf, Patterns: "app:*"})
//
// The zapsink subpackage forwards rendered lines into a zap.Logger.
package psdebug
