// Package main is the entry point for the blog posts service.
package main

import (
	"os"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/app"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

func main() {
	os.Exit(app.Execute(config.ServicePosts))
}
