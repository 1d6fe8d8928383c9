// Package cli turns command-line arguments into an app.Config. Flags given
// explicitly override the HCL settings file; malformed input is reported as
// an ExitError carrying the process exit code.
package cli
