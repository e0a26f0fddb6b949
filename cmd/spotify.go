package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spotapi/internal/formatter"
	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/desertthunder/spotapi/internal/tasks"
	"github.com/desertthunder/spotapi/spotify"
	"github.com/urfave/cli/v3"
)

// args returns the positional arguments, failing when fewer than n were given.
func args(cmd *cli.Command, n int, name string) ([]string, error) {
	if cmd.Args().Len() < n {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return cmd.Args().Slice(), nil
}

// Me prints the current user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	user, err := r.client.Me(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return unavailable("profile")
	}

	return r.render(cmd, user, func() error {
		r.writePlain("%s\n", r.palette.Title(user.Name()))
		r.writePlain("ID: %s\n", user.ID)
		if user.Email != "" {
			r.writePlain("Email: %s\n", user.Email)
		}
		if user.Country != "" {
			r.writePlain("Country: %s\n", user.Country)
		}
		if user.Product != "" {
			r.writePlain("Product: %s\n", user.Product)
		}
		if user.Followers != nil {
			r.writePlain("Followers: %d\n", user.Followers.Total)
		}
		return nil
	})
}

// AlbumsGet prints one line per album.
func (r *Runner) AlbumsGet(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "album id")
	if err != nil {
		return err
	}

	albums, err := r.client.Albums(ctx, ids...)
	if err != nil {
		return err
	}

	return r.render(cmd, albums, func() error {
		r.writePlain("Found %d albums:\n\n", len(albums))
		for i, a := range albums {
			r.writePlain("%d. %s - %s (%s)\n", i+1, formatter.ArtistNames(a.Artists), a.Name, a.ReleaseDate)
			r.writePlain("   ID: %s, Tracks: %d\n", a.ID, a.TotalTracks)
		}
		return nil
	})
}

// AlbumsTracks prints a page of an album's tracks in --format.
func (r *Runner) AlbumsTracks(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "album id")
	if err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	page, err := r.client.AlbumTracks(ctx, ids[0], cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if page == nil {
		return unavailable("album tracks")
	}

	data, err := formatter.RenderTracks(f, "", page.Items)
	if err != nil {
		return err
	}
	if err := r.writeBytes(data); err != nil {
		return err
	}
	if page.Next != nil {
		r.writePlainln(r.palette.Help(fmt.Sprintf("%d of %d shown; continue with --offset %d", len(page.Items), page.Total, page.Offset+len(page.Items))))
	}
	return nil
}

// AlbumsExport writes every track of one album in --format, to stdout or --output.
//
// Markdown exports go to a directory holding README.md and the cover image. Several ids run a bulk export
// into the --output directory.
func (r *Runner) AlbumsExport(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "album id")
	if err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if len(ids) > 1 {
		return r.bulkExport(ctx, cmd, ids, f)
	}

	albums, err := r.client.Albums(ctx, ids[0])
	if err != nil {
		return err
	}
	if len(albums) == 0 {
		return unavailable("album " + ids[0])
	}
	album := albums[0]

	tracks, err := tasks.CollectTracks(ctx, r.client, album)
	if err != nil {
		if len(tracks) == 0 {
			return err
		}
		r.logger.Warn("album track listing ended early", "album", album.ID, "error", err)
	}
	title := tasks.Title(album)
	output := cmd.String("output")

	if f == formatter.FormatMarkdown && output != "" {
		imageURL := ""
		if len(album.Images) > 0 {
			imageURL = album.Images[0].URL
		}

		result, err := formatter.WriteMarkdownExport(ctx, r.httpClient, title, tracks, output, imageURL)
		if err != nil {
			return err
		}
		if result.CoverError != nil {
			r.logger.Warn("failed to save cover image", "error", result.CoverError)
		}
		for _, file := range result.Files {
			r.writePlain("%s\n", r.palette.OK("Wrote %s", file))
		}
		return nil
	}

	if output == "" {
		data, err := formatter.RenderTracks(f, title, tracks)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}

	if filepath.Ext(output) == "" {
		output += f.Extension()
	}
	if err := formatter.WriteTracks(output, f, title, tracks); err != nil {
		return err
	}
	return r.writePlain("%s\n", r.palette.OK("Exported %d tracks to %s", len(tracks), output))
}

// bulkExport exports several albums concurrently, printing progress as it goes.
func (r *Runner) bulkExport(ctx context.Context, cmd *cli.Command, ids []string, f formatter.Format) error {
	prog := make(chan tasks.ProgressUpdate, len(ids)*2+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.writePlain("%s\n", u.Message)
		}
	}()

	result, err := tasks.NewExporter(r.client, r.logger).BulkExport(ctx, prog, ids, tasks.BulkExportOpts{
		Format:     f,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		HTTPClient: r.httpClient,
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln(r.palette.OK("Exported %d of %d albums to %s", result.SuccessfulExports, result.TotalAlbums, result.OutputDirectory))
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d albums failed to export", shared.ErrAPIRequest, result.FailedExports)
	}
	return nil
}

// ArtistsGet prints one line per artist.
func (r *Runner) ArtistsGet(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "artist id")
	if err != nil {
		return err
	}

	artists, err := r.client.Artists(ctx, ids...)
	if err != nil {
		return err
	}

	return r.render(cmd, artists, func() error {
		r.writePlain("Found %d artists:\n\n", len(artists))
		for i, a := range artists {
			r.writePlain("%d. %s\n", i+1, a.Name)
			r.writePlain("   ID: %s\n", a.ID)
			r.writePlain("   URI: %s\n", a.URI)
		}
		return nil
	})
}

// ArtistsAlbums prints a page of an artist's albums.
func (r *Runner) ArtistsAlbums(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "artist id")
	if err != nil {
		return err
	}

	var groups []spotify.IncludeGroup
	for _, g := range cmd.StringSlice("group") {
		groups = append(groups, spotify.IncludeGroup(g))
	}

	page, err := r.client.ArtistAlbums(ctx, ids[0], groups, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if page == nil {
		return unavailable("artist albums")
	}

	return r.render(cmd, page, func() error {
		r.writePlain("Showing %d of %d albums:\n\n", len(page.Items), page.Total)
		for i, a := range page.Items {
			r.writePlain("%d. %s (%s, %s)\n", page.Offset+i+1, a.Name, a.AlbumType, a.ReleaseDate)
			r.writePlain("   ID: %s\n", a.ID)
		}
		return nil
	})
}

// ArtistsRelated prints artists similar to the given one.
func (r *Runner) ArtistsRelated(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "artist id")
	if err != nil {
		return err
	}

	related, err := r.client.RelatedArtists(ctx, ids[0])
	if err != nil {
		return err
	}

	return r.render(cmd, related, func() error {
		r.writePlain("Found %d related artists:\n\n", len(related))
		for i, a := range related {
			r.writePlain("%d. %s (popularity %d)\n", i+1, a.Name, a.Popularity)
			if len(a.Genres) > 0 {
				r.writePlain("   Genres: %s\n", strings.Join(a.Genres, ", "))
			}
		}
		return nil
	})
}

// ArtistsTopTracks prints an artist's top tracks in --format.
func (r *Runner) ArtistsTopTracks(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "artist id")
	if err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	tracks, err := r.client.ArtistTopTracks(ctx, ids[0], cmd.String("market"))
	if err != nil {
		return err
	}

	data, err := formatter.RenderTracks(f, "Top tracks", tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// PlaylistsList prints a page of the current user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.client.OwnPlaylists(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if page == nil {
		return unavailable("playlists")
	}

	return r.render(cmd, page.Items, func() error {
		return r.writeBytes(formatter.PlaylistsToText(page.Items))
	})
}

// PlaylistsAdd adds track or episode URIs to a playlist.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, 2, "playlist id and at least one URI")
	if err != nil {
		return err
	}

	ok, err := r.client.AddItemsToPlaylist(ctx, in[0], cmd.Int("position"), in[1:]...)
	if err != nil {
		return err
	}
	if !ok {
		return unavailable("playlist " + in[0])
	}
	return r.writePlain("%s\n", r.palette.OK("Added %d items to %s", len(in)-1, in[0]))
}

// PlaylistsUnfollow unfollows a playlist.
func (r *Runner) PlaylistsUnfollow(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, 1, "playlist id")
	if err != nil {
		return err
	}

	ok, err := r.client.UnfollowPlaylist(ctx, in[0])
	if err != nil {
		return err
	}
	if !ok {
		return unavailable("playlist " + in[0])
	}
	return r.writePlain("%s\n", r.palette.OK("Unfollowed playlist %s", in[0]))
}

// PlayerStatus prints the current playback.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	playback, err := r.client.Playback(ctx, cmd.String("market"))
	if err != nil {
		return err
	}

	return r.render(cmd, playback, func() error {
		return r.writePlain("%s", formatter.PlaybackSummary(playback))
	})
}

// PlayerQueue prints the playback queue.
func (r *Runner) PlayerQueue(ctx context.Context, cmd *cli.Command) error {
	queue, err := r.client.Queue(ctx)
	if err != nil {
		return err
	}
	if queue == nil {
		return unavailable("queue")
	}

	return r.render(cmd, queue, func() error {
		return r.writeBytes(formatter.QueueToText(queue))
	})
}

// Unfollow unfollows artists or users.
func (r *Runner) Unfollow(ctx context.Context, cmd *cli.Command) error {
	ids, err := args(cmd, 1, "id")
	if err != nil {
		return err
	}

	kind := spotify.FollowType(cmd.String("type"))
	if kind != spotify.FollowArtist && kind != spotify.FollowUser {
		return fmt.Errorf("%w: --type must be artist or user, got %q", shared.ErrInvalidArgument, kind)
	}

	ok, err := r.client.UnfollowUsers(ctx, kind, ids...)
	if err != nil {
		return err
	}
	if !ok {
		return unavailable("unfollow")
	}
	return r.writePlain("%s\n", r.palette.OK("Unfollowed %d %ss", len(ids), kind))
}

// Genres prints the available genre seeds.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	genres, err := r.client.GenreSeeds(ctx)
	if err != nil {
		return err
	}

	return r.render(cmd, genres, func() error {
		r.writePlain("Found %d genres:\n\n", len(genres))
		return r.writePlain("%s\n", strings.Join(genres, "\n"))
	})
}
