// Package config holds the runtime configuration shared by the cache,
// gateway, session, stream and chat layers.
//
// Values may reference environment variables with ${VAR} syntax;
// Expand resolves them strictly, so a missing variable is a startup
// error rather than a silently empty URL.
package config
