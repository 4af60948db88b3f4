// Package filicious provides a uniform, backend-agnostic filesystem
// interface. Callers manipulate abstract pathnames and receive consistent
// semantics regardless of whether the underlying storage is a local disk
// or a remote server reached over a connection-oriented protocol.
//
// The package defines the Adapter contract every backend implements, a
// mount Tree that resolves a single logical filesystem across multiple
// adapters, and a connection lifecycle manager that lazily establishes
// backend connections and invalidates them when configuration changes.
//
// Backends live in subpackages:
//
//   - adapter/local:  local disk, full capability set
//   - adapter/sftp:   remote SFTP, capability-gapped (no space or MIME probes)
//   - adapter/memory: in-memory, for tests and scratch space
//
// Basic usage:
//
//	tree := filicious.NewTree(nil)
//	tree.Mount("/data", local.New("/srv/data"))
//	tree.Mount("/remote", sftp.New(sftp.Config{Host: "example.com", Username: "u", Password: "p"}))
//
//	data, err := tree.ReadFile(ctx, "/data/report.csv")
//	err = tree.Move(ctx, "/data/report.csv", "/remote/archive/report.csv")
//
// Operations an individual backend cannot express fail with
// ErrUnsupported rather than silently doing nothing; transport and
// authentication failures surface as *AdapterError.
package filicious
