package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/diwise/jsonapi-entities/internal/pkg/infrastructure/cache/badger"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/client"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/processors"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/types/entities"
	"github.com/spf13/cobra"
)

type options struct {
	baseURL    string
	pathPrefix string
	depth      int
	cacheDir   string
	query      string
	timeout    time.Duration
	limit      int
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "jsonapi-dump",
		Short:         "Dump hydrated Drupal JSON:API entities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.baseURL, "url", "u", "", "base url of the Drupal site")
	flags.StringVar(&opts.pathPrefix, "prefix", client.DefaultPathPrefix, "path prefix of the JSON:API endpoints")
	flags.IntVarP(&opts.depth, "depth", "d", client.DefaultMaxDepth, "how many levels of relationships to hydrate")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "keep fetched documents in a badger database in this directory")
	flags.StringVarP(&opts.query, "jq", "q", "", "jq expression applied to the output")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "maximum time to spend on the request")
	flags.BoolVar(&opts.debug, "debug", false, "log failed requests")
	rootCmd.MarkPersistentFlagRequired("url")

	collectionCmd := &cobra.Command{
		Use:   "collection <entity--bundle>",
		Short: "Print a single page of resources of a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, c client.JSONAPIClient) (any, error) {
				entityType, bundle, err := types.ParseType(args[0])
				if err != nil {
					return nil, err
				}

				params := []client.RequestDecoratorFunc{}
				if opts.limit > 0 {
					params = append(params, client.PageLimit(opts.limit))
				}

				collection, err := c.RetrieveCollection(ctx, entityType, bundle, params...)
				if err != nil {
					return nil, err
				}
				return collection.ToObject(), nil
			})
		},
	}
	collectionCmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of resources to fetch")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "entity <entity--bundle> <uuid>",
			Short: "Print an entity together with every entity hydrated from it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, opts, func(ctx context.Context, c client.JSONAPIClient) (any, error) {
					key, err := types.NewLookupKey(args[0], args[1])
					if err != nil {
						return nil, err
					}

					e, err := c.RetrieveEntity(ctx, key)
					if err != nil {
						return nil, err
					}

					b, err := e.ToJSON(ctx)
					if err != nil {
						return nil, err
					}

					var envelope any
					err = json.Unmarshal(b, &envelope)
					return envelope, err
				})
			},
		},
		collectionCmd,
		&cobra.Command{
			Use:   "field <entity--bundle> <uuid> <field>",
			Short: "Print the resolved values of a single field",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, opts, func(ctx context.Context, c client.JSONAPIClient) (any, error) {
					key, err := types.NewLookupKey(args[0], args[1])
					if err != nil {
						return nil, err
					}

					e, err := c.RetrieveEntity(ctx, key)
					if err != nil {
						return nil, err
					}

					values, err := e.AllValues(ctx, args[2])
					if err != nil {
						return nil, err
					}

					for i, v := range values {
						if ref, ok := v.(*entities.Entity); ok {
							values[i] = ref.ToObject()
						}
					}
					return values, nil
				})
			},
		},
	)

	return rootCmd
}

type commandFunc func(ctx context.Context, c client.JSONAPIClient) (any, error)

func run(cmd *cobra.Command, opts *options, fn commandFunc) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	var filter *processors.Processor
	if opts.query != "" {
		var err error
		filter, err = processors.Compile(opts.query)
		if err != nil {
			return err
		}
	}

	var c cache.Cache = cache.NewMemory()
	if opts.cacheDir != "" {
		bc, err := badger.New(ctx, badger.Options{Dir: opts.cacheDir})
		if err != nil {
			return err
		}
		c = bc
	}
	defer c.Close()

	jc := client.NewJSONAPIClient(opts.baseURL,
		client.PathPrefix(opts.pathPrefix),
		client.MaxDepth(opts.depth),
		client.WithCache(c),
		client.Debug(fmt.Sprintf("%t", opts.debug)),
	)

	result, err := fn(ctx, jc)
	if err != nil {
		return err
	}

	if filter != nil {
		result, err = filter.Apply(ctx, result)
		if err != nil {
			return err
		}
	}

	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
