package binding

// KnownGlobals is the fixed, documented Tier 0 set (spec.md §4.2,
// SPEC_FULL.md "Known-Globals set is made concrete"): host-platform
// globals that cannot be shadowed by imports by language rule.
var KnownGlobals = map[string]bool{
	"Error": true, "Array": true, "Object": true, "JSON": true,
	"Promise": true, "Map": true, "Set": true, "WeakMap": true,
	"WeakSet": true, "Symbol": true, "Proxy": true, "Reflect": true,
	"console": true, "URL": true, "URLSearchParams": true,
	"setTimeout": true, "setInterval": true, "clearTimeout": true,
	"clearInterval": true, "queueMicrotask": true,
	"Int8Array": true, "Uint8Array": true, "Uint8ClampedArray": true,
	"Int16Array": true, "Uint16Array": true, "Int32Array": true,
	"Uint32Array": true, "Float32Array": true, "Float64Array": true,
	"ArrayBuffer": true, "DataView": true, "globalThis": true,
}

// IsKnownGlobal reports whether symbol is a Tier 0 global.
func IsKnownGlobal(symbol string) bool { return KnownGlobals[symbol] }
