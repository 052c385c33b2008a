package conf

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Load reads the config file or directory at path. Placeholders such as
// ${TOKEN:} are resolved against the process environment.
func Load(path string) (*Bootstrap, error) {
	c := config.New(
		config.WithSource(
			env.NewSource(),
			file.NewSource(path),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}
	bc.setDefaults()
	return &bc, nil
}

func (bc *Bootstrap) setDefaults() {
	if bc.Server == nil {
		bc.Server = &Server{}
	}
	if bc.Server.Http == nil {
		bc.Server.Http = &HTTP{}
	}
	if bc.Data == nil {
		bc.Data = &Data{}
	}
	if bc.Data.Database == nil {
		bc.Data.Database = &Database{}
	}
	if bc.Data.Database.Driver == "" {
		bc.Data.Database.Driver = "sqlite"
	}
	if bc.Data.Database.Source == "" {
		bc.Data.Database.Source = "movies.db"
	}
	if bc.Data.Redis == nil {
		bc.Data.Redis = &Redis{}
	}
	if bc.Tmdb == nil {
		bc.Tmdb = &TMDB{}
	}
	if bc.Tmdb.Url == "" {
		bc.Tmdb.Url = "https://api.themoviedb.org/3"
	}
	if bc.Tmdb.ImageUrl == "" {
		bc.Tmdb.ImageUrl = "https://image.tmdb.org/t/p/w500"
	}
}
