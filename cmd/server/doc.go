/*
Command server runs a Hydrenix node.

It serves the provisioning API on PORT (default 3002). Settings come from the
environment (see internal/infrastructure/config); a few flags override them.

Usage:

	server [flags]

Flags:

	-key string
		Write the API key into the config file and exit without serving.
	-config string
		Config file path (overrides CONFIG_PATH).
	-port string
		Server port (overrides PORT).
	-dev
		Human-readable development logging.

Examples:

	# Set the shared secret once
	server -key "$(openssl rand -hex 32)"

	# Run the node
	SANDBOX_IMAGE=hydrenix/tmate-sandbox:latest server
*/
package main
