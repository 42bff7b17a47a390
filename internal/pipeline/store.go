package pipeline

import (
	"github.com/dgallion1/guides/internal/config"
	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/meta"
	"github.com/dgallion1/guides/internal/pathstore"
)

// OpenStore picks where the metadata cache lives. A configured pathstore
// wins over the local cache directory. The returned func releases it.
func OpenStore(cfg config.Config) (meta.Store, func()) {
	if cfg.PathstoreURL != "" {
		client := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		return pathstore.NewStore(client, cfg.PathstoreTenant), client.Close
	}
	return meta.NewFileStore(fsys.NewOS(cfg.CacheDir), ""), func() {}
}
