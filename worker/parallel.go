package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
)

// ParseAll parses texts concurrently and returns the messages in input
// order. The first parse failure cancels the remaining work and is
// returned; partial results are discarded. workers <= 0 means
// runtime.NumCPU().
func ParseAll(ctx context.Context, texts []string, workers int, opts ...hl7v2.Option) ([]*hl7v2.Message, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	parser := codec.NewParser(opts...)
	messages := make([]*hl7v2.Message, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, _, err := parser.Parse(text)
			if err != nil {
				return err
			}
			messages[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return messages, nil
}

// SerializeAll serializes messages concurrently and returns the texts in
// input order, failing on the first error.
func SerializeAll(ctx context.Context, messages []*hl7v2.Message, workers int, opts ...hl7v2.Option) ([]string, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	serializer := codec.NewSerializer(opts...)
	texts := make([]string, len(messages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, msg := range messages {
		i, msg := i, msg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := serializer.Serialize(msg)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}
