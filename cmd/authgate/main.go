package main

import (
	"github.com/joeydtaylor/authgate/pkg/serverfx"
	"go.uber.org/fx"
)

func main() {
	fx.New(serverfx.Module(serverfx.Options{
		Service:         "authgate",
		ManifestEnv:     "AUTHGATE_MANIFEST",
		DefaultManifest: "manifest.toml",
		ListenAddrEnv:   "SERVER_LISTEN_ADDRESS",
		DefaultListen:   ":4000",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
	})).Run()
}
