package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sputn1ck/boostsplit/client"
	"github.com/sputn1ck/boostsplit/feedcache"
	"github.com/sputn1ck/boostsplit/recipient"
	"github.com/sputn1ck/boostsplit/splitcalc"
	"github.com/urfave/cli"
)

type planRecipient struct {
	Name      string  `json:"name,omitempty"`
	Type      string  `json:"type"`
	Address   string  `json:"address"`
	Split     float64 `json:"split"`
	Fee       bool    `json:"fee,omitempty"`
	AmountSat int64   `json:"amount_sat"`
}

type planResponse struct {
	AmountSat  int64            `json:"amount_sat"`
	FeeSat     int64            `json:"fee_sat"`
	TotalSat   int64            `json:"total_sat"`
	Recipients []*planRecipient `json:"recipients"`
	Valid      bool             `json:"valid"`
	Warnings   []string         `json:"warnings,omitempty"`
}

type validateResponse struct {
	Recipients int      `json:"recipients"`
	TotalSplit float64  `json:"total_split"`
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors,omitempty"`
}

func planCommand(state *appState) cli.Command {
	return cli.Command{
		Name:      "plan",
		Usage:     "Show how a boost would be split.",
		ArgsUsage: "value.xml",
		Description: `
	Reads a podcast:value block from the given file, or from stdin if the
	file is "-", and prints the amount every recipient would receive for a
	boost of the given amount, including the configured platform fee.
	Nothing is paid.
	`,
		Flags: []cli.Flag{
			cli.Int64Flag{
				Name:  "amt",
				Usage: "the boost amount in satoshis",
			},
		},
		Action: func(ctx *cli.Context) error {
			return plan(ctx, state)
		},
	}
}

func plan(ctx *cli.Context, state *appState) error {
	amt := btcutil.Amount(ctx.Int64("amt"))
	if amt <= 0 {
		return fmt.Errorf("a positive --amt is required")
	}

	raw, err := readValue(ctx)
	if err != nil {
		return err
	}

	// Planning never pays, so there is no invoice resolver.
	c, err := client.New(&client.Config{
		Network: state.cfg.Network,
		Fee:     state.cfg.Fee,
		Policy:  state.cfg.Policy,
	})
	if err != nil {
		return err
	}

	p := c.Plan(raw, amt)

	resp := &planResponse{
		AmountSat:  int64(p.Amount),
		FeeSat:     int64(p.Fee),
		TotalSat:   int64(p.Total),
		Recipients: make([]*planRecipient, 0, len(p.Allocations)),
		Valid:      p.Validation.Valid,
		Warnings:   p.Validation.Errors,
	}
	for _, a := range p.Allocations {
		resp.Recipients = append(resp.Recipients, newPlanRecipient(a))
	}

	return printJSON(ctx.App.Writer, resp)
}

func newPlanRecipient(a *splitcalc.SplitAllocation) *planRecipient {
	return &planRecipient{
		Name:      a.Recipient.Name,
		Type:      string(a.Recipient.Type),
		Address:   a.Recipient.Address,
		Split:     a.Recipient.Split,
		Fee:       a.Recipient.Fee,
		AmountSat: int64(a.Amount),
	}
}

func validateCommand(state *appState) cli.Command {
	return cli.Command{
		Name:      "validate",
		Usage:     "Check a value block for errors.",
		ArgsUsage: "value.xml",
		Description: `
	Reads a podcast:value block from the given file, or from stdin if the
	file is "-", and checks the recipients for errors. Exits with an error
	if the value block is invalid.
	`,
		Action: func(ctx *cli.Context) error {
			raw, err := readValue(ctx)
			if err != nil {
				return err
			}

			recipients := recipient.ParseValueRecipients(raw)
			result := recipient.ValidateValueSplits(recipients)

			err = printJSON(ctx.App.Writer, &validateResponse{
				Recipients: len(recipients),
				TotalSplit: recipient.TotalSplit(recipients),
				Valid:      result.Valid,
				Errors:     result.Errors,
			})
			if err != nil {
				return err
			}

			if !result.Valid {
				return cli.NewExitError("value block is invalid", 1)
			}

			return nil
		},
	}
}

type feedURLResponse struct {
	GUID string `json:"guid"`
	URL  string `json:"url"`
}

func feedURLCommand(state *appState) cli.Command {
	return cli.Command{
		Name:      "feedurl",
		Usage:     "Look up the feed URL of a podcast GUID.",
		ArgsUsage: "guid",
		Description: `
	Resolves the podcast:guid of a feed to its URL at the Podcast Index,
	using the credentials of the PodcastIndex config section.
	`,
		Action: func(ctx *cli.Context) error {
			guid := ctx.Args().First()
			if guid == "" {
				return fmt.Errorf("guid argument missing")
			}

			indexCfg := feedcache.DefaultPodcastIndexConfig(
				state.cfg.PodcastIndex.Key,
				state.cfg.PodcastIndex.Secret,
			)
			indexCfg.BaseURL = state.cfg.PodcastIndex.URL

			index, err := feedcache.NewPodcastIndex(indexCfg)
			if err != nil {
				return err
			}

			cache, err := feedcache.New(feedcache.DefaultConfig(index))
			if err != nil {
				return err
			}

			url, err := cache.FeedURL(context.Background(), guid)
			if err != nil {
				return err
			}

			return printJSON(ctx.App.Writer, &feedURLResponse{
				GUID: guid,
				URL:  url,
			})
		},
	}
}

// readValue decodes the value block named by the first argument.
func readValue(ctx *cli.Context) (*recipient.RawValue, error) {
	path := ctx.Args().First()
	if path == "" {
		return nil, fmt.Errorf("value block file argument missing")
	}

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open value block: %w",
				err)
		}
		defer f.Close()

		r = f
	}

	return recipient.DecodeValueXML(r)
}

func printJSON(w io.Writer, resp interface{}) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "    "); err != nil {
		return err
	}
	out.WriteString("\n")

	_, err = out.WriteTo(w)
	return err
}
