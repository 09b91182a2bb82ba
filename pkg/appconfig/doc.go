// Package appconfig loads the application catalog that maps submitted jobs
// onto runnable container entrypoints.
//
// The catalog is a YAML document keyed application -> version -> entrypoint.
// A Loader caches it and transparently re-reads it whenever the backing
// file's modification time advances, so catalog updates roll out without a
// service restart. The file may live on the local filesystem or in object
// storage (s3://bucket/key).
package appconfig
