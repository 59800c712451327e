// Package logx is a small structured logging kit over zerolog.
//
// A Logger created from a Service stays "live": Service.Apply() can swap
// sinks and levels at runtime (config hot reload) and every derived
// logger picks the change up. The zero Logger is a safe no-op.
package logx
