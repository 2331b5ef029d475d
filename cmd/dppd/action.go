package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.dedis.ch/dpp"
	"go.dedis.ch/dpp/config"
	"go.dedis.ch/dpp/core/checktx"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/execution"
	"go.dedis.ch/dpp/core/platform"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

func versionsAction(c *cli.Context) error {
	out := c.App.Writer

	for _, pv := range version.Supported() {
		fmt.Fprintf(out, "protocol version %d\n", pv.ProtocolVersion)

		for _, m := range pv.Methods() {
			v, _ := pv.Method(m)
			fmt.Fprintf(out, "  %s: %d\n", m, v)
		}
	}

	return nil
}

func checkAction(c *cli.Context) error {
	raws, err := readTransitions(c)
	if err != nil {
		return err
	}

	p, closer, err := openPlatform(c)
	if err != nil {
		return err
	}

	defer closer()

	out := c.App.Writer

	for i, raw := range raws {
		if c.Bool("dry-run") {
			res, err := p.DryRun(context.Background(), raw)
			if err != nil {
				return xerrors.Errorf("transition %d: %v", i, err)
			}

			if !res.IsValid() {
				fmt.Fprintf(out, "%d: rejected (%d) %v\n", i, res.FirstError().Code(), res.FirstError())
				continue
			}

			fees, _ := res.Data()
			fmt.Fprintf(out, "%d: valid storage=%d processing=%d\n", i, fees.StorageFee, fees.ProcessingFee)

			continue
		}

		res, err := p.CheckTx(context.Background(), raw, checktx.FirstTimeCheck)
		if err != nil {
			return xerrors.Errorf("transition %d: %v", i, err)
		}

		if !res.IsValid() {
			fmt.Fprintf(out, "%d: rejected (%d) %v\n", i, res.FirstError().Code(), res.FirstError())
			continue
		}

		checked, _ := res.Data()
		fmt.Fprintf(out, "%d: accepted %s %x priority=%d fee=%d\n", i, checked.Name,
			checked.Hash[:4], checked.Priority, checked.Fee.ProcessingFee+checked.Fee.StorageFee)
	}

	return nil
}

func processAction(c *cli.Context) error {
	raws, err := readTransitions(c)
	if err != nil {
		return err
	}

	p, closer, err := openPlatform(c)
	if err != nil {
		return err
	}

	defer closer()

	block := blockFromFlags(c)

	tx, err := p.Drive().Begin()
	if err != nil {
		return xerrors.Errorf("couldn't open transaction: %v", err)
	}

	res, err := p.ProcessRawStateTransitions(context.Background(), raws, block, tx)
	if err != nil {
		tx.Rollback()
		return xerrors.Errorf("couldn't process block: %v", err)
	}

	err = p.Commit(tx, block)
	if err != nil {
		return err
	}

	out := c.App.Writer

	for i, r := range res.Results {
		fmt.Fprintf(out, "%d: %s", i, r.Kind())

		switch e := r.(type) {
		case execution.PaidConsensusError:
			fmt.Fprintf(out, " (%d) %v", e.Error.Code(), e.Error)
		case execution.UnpaidConsensusError:
			fmt.Fprintf(out, " (%d) %v", e.Error.Code(), e.Error)
		case execution.InternalError:
			fmt.Fprintf(out, " %s", e.Message)
		}

		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%v storage=%d processing=%d\n", res, res.Fees.StorageFee, res.Fees.ProcessingFee)

	return nil
}

func documentsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("expected one contract identifier")
	}

	contractID, err := types.IdentifierFromHex(c.Args().First())
	if err != nil {
		return xerrors.Errorf("invalid contract: %v", err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	d, closer, err := openDrive(cfg)
	if err != nil {
		return err
	}

	defer closer()

	docs, err := d.FetchDocuments(nil, contractID)
	if err != nil {
		return err
	}

	out := c.App.Writer

	for _, doc := range docs {
		fmt.Fprintf(out, "%v %s owner=%v revision=%d", doc.Document.ID, doc.DocumentType,
			doc.Document.OwnerID, doc.Document.Revision)

		if doc.Document.Price > 0 {
			fmt.Fprintf(out, " price=%d", doc.Document.Price)
		}

		fmt.Fprintln(out)
	}

	return nil
}

// openDrive opens the database of the configuration. The closer releases it.
func openDrive(cfg config.Config) (*drive.Store, func() error, error) {
	db, err := kv.New(cfg.Database)
	if err != nil {
		return nil, nil, xerrors.Errorf("couldn't open database: %v", err)
	}

	d, err := drive.New(db, drive.DefaultCacheSize)
	if err != nil {
		db.Close()
		return nil, nil, xerrors.Errorf("couldn't open drive: %v", err)
	}

	return d, db.Close, nil
}

// openPlatform opens the drive of the configuration and creates the platform
// on top of it. The closer releases the database.
func openPlatform(c *cli.Context) (*platform.Platform, func() error, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	pv, err := cfg.Version()
	if err != nil {
		return nil, nil, err
	}

	quorums, err := cfg.QuorumSet()
	if err != nil {
		return nil, nil, err
	}

	d, closer, err := openDrive(cfg)
	if err != nil {
		return nil, nil, err
	}

	// The node is not connected to a core chain, only the asset locks proved
	// by an instant lock of a configured quorum can be verified.
	core := corerpc.NewRetrying(corerpc.NewMemory(), cfg.RetryOptions()...)

	p := platform.NewPlatform(d, core, platform.State{
		Version:   pv,
		LastBlock: blockFromFlags(c),
		Quorums:   quorums,
	}, platform.WithWorkers(cfg.Workers), platform.WithParams(cfg.Params()))

	return p, closer, nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()

	path := c.String("config")
	if path != "" {
		var err error

		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}

	if c.String("db") != "" {
		cfg.Database = c.String("db")
	}

	err := cfg.Validate()
	if err != nil {
		return cfg, xerrors.Errorf("invalid config: %v", err)
	}

	return cfg, nil
}

func blockFromFlags(c *cli.Context) types.BlockInfo {
	return types.BlockInfo{
		Height:     c.Uint64("height"),
		TimeMs:     c.Uint64("time"),
		CoreHeight: uint32(c.Uint("core-height")),
		Epoch:      types.EpochIndex(c.Uint("epoch")),
	}
}

// readTransitions decodes the hexadecimal transitions of the arguments, or of
// the standard input when there is no argument.
func readTransitions(c *cli.Context) ([][]byte, error) {
	lines := c.Args().Slice()

	if len(lines) == 0 {
		scanner := bufio.NewScanner(c.App.Reader)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				lines = append(lines, line)
			}
		}

		err := scanner.Err()
		if err != nil {
			return nil, xerrors.Errorf("couldn't read input: %v", err)
		}
	}

	raws := make([][]byte, len(lines))

	for i, line := range lines {
		raw, err := hex.DecodeString(line)
		if err != nil {
			return nil, xerrors.Errorf("transition %d is not hexadecimal: %v", i, err)
		}

		raws[i] = raw
	}

	return raws, nil
}

type metricsServer struct {
	*http.Server

	addr net.Addr
}

// serveMetrics registers the collectors of the packages and serves them in
// the background.
func serveMetrics(addr string) (*metricsServer, error) {
	registry := prometheus.NewRegistry()

	for _, c := range dpp.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return nil, xerrors.Errorf("failed to register: %v", err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("failed to listen: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &metricsServer{
		Server: &http.Server{Handler: mux},
		addr:   ln.Addr(),
	}

	logger := dpp.Logger.With().Str("component", "metrics").Logger()

	go func() {
		err := srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			logger.Err(err).Msg("metrics server failed")
		}
	}()

	logger.Info().Stringer("addr", ln.Addr()).Msg("serving metrics")

	return srv, nil
}
