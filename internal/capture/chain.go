package capture

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Chain walks the capture fallbacks in order: fast -> print -> standard -> thumbnail.
// Each stage is tried once.
type Chain struct {
	server      Capturer
	printDPI    int
	jpegQuality int
	logger      *zap.Logger
}

func NewChain(server Capturer, printDPI int, logger *zap.Logger) *Chain {
	if printDPI <= 0 {
		printDPI = DefaultPrintDPI
	}
	return &Chain{server: server, printDPI: printDPI, jpegQuality: 85, logger: logger}
}

func (c *Chain) Capture(ctx context.Context, src FrameSource, req Request) (Result, error) {
	var errs []error

	res, err := FastCapture(src, c.jpegQuality)
	if err != nil {
		errs = append(errs, err)
		c.logger.Warn("fast capture failed", zap.Error(err))
	} else if res != nil {
		if req.Timestamp > 0 {
			res.Timestamp = req.Timestamp
		}
		return *res, nil
	}

	if req.VideoURL != "" && c.server != nil {
		printReq := req
		printReq.Quality = QualityPrint
		if printReq.PrintDPI <= 0 {
			printReq.PrintDPI = c.printDPI
		}
		standard := req
		standard.PrintDPI = 0
		standard.Quality = QualityStandard

		for _, attempt := range []Request{printReq, standard} {
			res, err := c.server.Capture(ctx, attempt)
			if err == nil {
				return res, nil
			}
			errs = append(errs, err)
			c.logger.Warn("server capture failed, falling back",
				zap.String("quality", string(attempt.EffectiveQuality())),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return Result{}, fmt.Errorf("%w: %w", ErrCaptureUnavailable, ctx.Err())
			}
		}
	}

	if req.ThumbnailURL != "" && c.server != nil {
		thumb := Request{VideoURL: req.VideoURL, Quality: QualityThumbnail, ThumbnailURL: req.ThumbnailURL, Timestamp: req.Timestamp}
		res, err := c.server.Capture(ctx, thumb)
		if err == nil {
			return res, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		errs = append(errs, ErrNotReady)
	}
	return Result{}, fmt.Errorf("%w: %w", ErrCaptureUnavailable, errors.Join(errs...))
}
