package common

// Version is overridden at build time via -ldflags "-X .../common.Version=..."
var Version = "dev"

// PackageName namespaces exported metrics.
const PackageName = "custom_producer"
