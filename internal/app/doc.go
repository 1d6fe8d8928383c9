// Package app contains the core application logic. It resolves settings,
// builds the session and its seed graph, and drives one of two front ends
// (a one-shot animated run or the interactive console) together with the
// optional observation server and remote renderer relay. It is decoupled
// from any specific entrypoint like a CLI.
package app
