package banner

import (
	"fmt"

	"confmatch/pkg/config"
)

const banner = `
 ██████╗ ██████╗ ███╗   ██╗███████╗███╗   ███╗ █████╗ ████████╗ ██████╗██╗  ██╗
██╔════╝██╔═══██╗████╗  ██║██╔════╝████╗ ████║██╔══██╗╚══██╔══╝██╔════╝██║  ██║
██║     ██║   ██║██╔██╗ ██║█████╗  ██╔████╔██║███████║   ██║   ██║     ███████║
██║     ██║   ██║██║╚██╗██║██╔══╝  ██║╚██╔╝██║██╔══██║   ██║   ██║     ██╔══██║
╚██████╗╚██████╔╝██║ ╚████║██║     ██║ ╚═╝ ██║██║  ██║   ██║   ╚██████╗██║  ██║
 ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝     ╚═╝     ╚═╝╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝
`

// Print shows the startup banner with the effective endpoints.
func Print(cfg config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("API:      %s\n", cfg.API.BaseURL)
	fmt.Printf("Socket:   %s\n", cfg.Socket.URL)
	fmt.Printf("Cache:    %s\n", cfg.Cache.Path)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if cfg.Cache.Retention.Enabled {
		fmt.Printf("Sweep:    cron=%s period=%s\n", cfg.Cache.Retention.Cron, cfg.Cache.Retention.Period)
	}
	if cfg.Metrics.Enabled {
		fmt.Printf("Metrics:  http://%s/metrics\n", cfg.Metrics.Addr)
	}
	fmt.Println()
}
