// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of items to return (1-50)",
			Value: 20,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Index of the first item to return",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, csv, markdown or json",
		Value:   "text",
	}
}

func marketFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "market",
		Usage: "ISO 3166-1 alpha-2 country code",
		Value: "US",
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// setupCommand handles config and database setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and session database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the session database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles the authorization-code flow and the stored session
func authCommand(r *Runner) *cli.Command {
	scopeFlag := &cli.StringSliceFlag{
		Name:  "scope",
		Usage: "Scope to request (repeatable); defaults to credentials.spotify.scopes",
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and manage saved tokens",
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Print the authorization URL",
				Flags:  []cli.Flag{scopeFlag},
				Action: r.AuthURL,
			},
			{
				Name:   "login",
				Usage:  "Authorize in the browser and save the tokens",
				Flags:  []cli.Flag{scopeFlag},
				Action: r.AuthLogin,
			},
			{
				Name:      "exchange",
				Usage:     "Exchange an authorization code for tokens",
				ArgsUsage: "[code]",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Callback URL to take the code from",
					},
				}, outputFlags()),
				Action: r.AuthExchange,
			},
			{
				Name:      "code",
				Usage:     "Print the code carried by a callback URL",
				ArgsUsage: "<callback-url>",
				Action:    r.AuthCode,
			},
			{
				Name:  "refresh",
				Usage: "Refresh the access token",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Refresh token to use instead of the saved one",
					},
				}, outputFlags()),
				Action: r.AuthRefresh,
			},
			{
				Name:   "status",
				Usage:  "Show saved credentials and tokens",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved tokens",
				Action: r.AuthLogout,
			},
		},
	}
}

func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the current user's profile",
		Flags:  outputFlags(),
		Action: r.Me,
	}
}

// albumsCommand handles album lookups and exports
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "albums",
		Aliases: []string{"album"},
		Usage:   "Album operations",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Get one or more albums",
				ArgsUsage: "<id>...",
				Flags:     outputFlags(),
				Action:    r.AlbumsGet,
			},
			{
				Name:      "tracks",
				Usage:     "List a page of an album's tracks",
				ArgsUsage: "<id>",
				Flags:     flags(pageFlags(), []cli.Flag{formatFlag()}),
				Action:    r.AlbumsTracks,
			},
			{
				Name:      "export",
				Usage:     "Export every track of one or more albums",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, or directory for markdown and multiple albums",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers when exporting multiple albums",
						Value: 5,
					},
				},
				Action: r.AlbumsExport,
			},
		},
	}
}

// artistsCommand handles artist lookups
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "artists",
		Aliases: []string{"artist"},
		Usage:   "Artist operations",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Get one or more artists",
				ArgsUsage: "<id>...",
				Flags:     outputFlags(),
				Action:    r.ArtistsGet,
			},
			{
				Name:      "albums",
				Usage:     "List a page of an artist's albums",
				ArgsUsage: "<id>",
				Flags: flags(pageFlags(), outputFlags(), []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "group",
						Usage: "album, single, appears_on or compilation (repeatable)",
					},
				}),
				Action: r.ArtistsAlbums,
			},
			{
				Name:      "related",
				Usage:     "List related artists",
				ArgsUsage: "<id>",
				Flags:     outputFlags(),
				Action:    r.ArtistsRelated,
			},
			{
				Name:      "top-tracks",
				Aliases:   []string{"top"},
				Usage:     "List an artist's top tracks",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{formatFlag(), marketFlag()},
				Action:    r.ArtistsTopTracks,
			},
		},
	}
}

// playlistsCommand handles the current user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"playlist"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the current user's playlists",
				Flags:  flags(pageFlags(), outputFlags()),
				Action: r.PlaylistsList,
			},
			{
				Name:      "add",
				Usage:     "Add tracks or episodes to a playlist",
				ArgsUsage: "<playlist-id> <uri>...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "position",
						Usage: "Zero-based position to insert at",
					},
				},
				Action: r.PlaylistsAdd,
			},
			{
				Name:      "unfollow",
				Usage:     "Unfollow a playlist",
				ArgsUsage: "<playlist-id>",
				Action:    r.PlaylistsUnfollow,
			},
		},
	}
}

// playerCommand handles playback state
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "player",
		Usage: "Playback state",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the current playback",
				Flags:  flags(outputFlags(), []cli.Flag{marketFlag()}),
				Action: r.PlayerStatus,
			},
			{
				Name:   "queue",
				Usage:  "Show the playback queue",
				Flags:  outputFlags(),
				Action: r.PlayerQueue,
			},
		},
	}
}

func unfollowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "unfollow",
		Usage:     "Unfollow artists or users",
		ArgsUsage: "<id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "artist or user",
				Value: "artist",
			},
		},
		Action: r.Unfollow,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "genres",
		Usage:  "List the available genre seeds",
		Flags:  outputFlags(),
		Action: r.Genres,
	}
}
