package main

// @title           cfr-ingest ops API
// @version         1.0
// @description     Operational endpoints of the cfr-ingest regulation ingestion pipeline.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/cfr-ingest/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:9090
// @BasePath  /
// @schemes   http

import (
	"os"
)

// version is set via ldflags during build
var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:]))
}
