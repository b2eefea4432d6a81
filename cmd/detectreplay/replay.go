package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/cuemby/vigil/pkg/detect"
	"github.com/cuemby/vigil/pkg/httpengine"
	"github.com/cuemby/vigil/pkg/log"
	"github.com/cuemby/vigil/pkg/metrics"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a demo rule set.
type ruleFile struct {
	Rules []httpengine.Sig `yaml:"rules"`
}

func loadRules(path string) (*httpengine.SignatureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return httpengine.BuildSignatureSet(rf.Rules), nil
}

func runReplay(cmd *cobra.Command, _ []string) error {
	pcapPath, _ := cmd.Flags().GetString("pcap")
	rulesPath, _ := cmd.Flags().GetString("rules")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	serverPort, _ := cmd.Flags().GetUint16("server-port")

	sigs, err := loadRules(rulesPath)
	if err != nil {
		return err
	}

	logger := log.WithComponent("detectreplay")
	logger.Info().Str("rules", rulesPath).Int("signatures", len(sigs.All())).Msg("loaded signature set")

	alerts := httpengine.NewAlertRecorder()
	files := httpengine.NewFiles()
	driver := httpengine.NewDriver(sigs, alerts, files)
	table := newFlowTable(files)

	metrics.RegisterComponent("engine_table", len(sigs.All()) > 0, "signature set loaded")
	metrics.RegisterComponent("alert_sink", true, "")

	if metricsAddr != "" {
		collector := metrics.NewCollector(table)
		collector.Start()
		defer collector.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
	}

	r := &replayer{
		driver:     driver,
		sigs:       sigs.All(),
		table:      table,
		serverPort: serverPort,
		logger:     logger,
	}
	if err := r.run(pcapPath); err != nil {
		return err
	}

	for _, a := range alerts.Alerts() {
		fmt.Printf("ALERT sid=%d dir=%s tx=%d has_tx=%v flags=%v\n", a.SID, a.Dir, a.TxID, a.HasTxID, a.Flags)
	}
	logger.Info().Int("alerts", len(alerts.Alerts())).Msg("replay finished")
	return nil
}

// replayer drives TCP payload bytes decoded from a pcap file into the flow
// table: StartDetection runs over every loaded signature the first time a
// packet grows a flow's transaction count, otherwise HasInspectableState
// gates whether ContinueDetection is worth calling at all, the caller-side
// contract both driver calls document.
type replayer struct {
	driver     *detect.Driver
	sigs       []*detect.Signature
	table      *flowTable
	serverPort uint16
	logger     zerolog.Logger
}

func (r *replayer) run(pcapPath string) error {
	f, err := os.Open(pcapPath)
	if err != nil {
		return fmt.Errorf("open pcap: %w", err)
	}
	defer f.Close()

	pr, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("read pcap header: %w", err)
	}

	linkType := pr.LinkType()
	packets := 0
	for {
		data, _, err := pr.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read packet: %w", err)
		}
		packets++
		r.handlePacket(gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true}))
	}
	r.logger.Info().Int("packets", packets).Msg("replay complete")
	return nil
}

// handlePacket decodes one captured frame and, for packets that carry a
// non-empty TCP payload, feeds it through the owning flow's detect state.
func (r *replayer) handlePacket(packet gopacket.Packet) {
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return
	}
	tcp, _ := tcpLayer.(*layers.TCP)
	if tcp == nil || len(tcp.Payload) == 0 {
		return
	}

	srcIP, dstIP := packetIPs(packet)
	if srcIP == nil || dstIP == nil {
		return
	}

	srcPort := uint16(tcp.SrcPort)
	dstPort := uint16(tcp.DstPort)
	dir := detect.ToServer
	if dstPort != r.serverPort {
		dir = detect.ToClient
	}

	key := newConnKey(srcIP, dstIP, srcPort, dstPort)
	entry := r.table.getOrCreate(key)

	entry.flow.Lock()
	defer entry.flow.Unlock()

	r.feed(entry, dir, tcp.Payload)
}

// feed pushes payload into entry's application-layer state and drives the
// right side of pkg/detect for dir: StartDetection when new transactions
// appeared since the last packet on this flow, ContinueDetection when
// HasInspectableState says there is stored state worth advancing.
func (r *replayer) feed(entry *flowEntry, dir detect.Direction, payload []byte) {
	entry.state.Feed(dir, payload)

	idx := dirIndex(dir)
	entry.lastVer[idx]++

	txCount := len(entry.state.Transactions)
	if txCount > entry.lastTxCnt {
		for _, sig := range r.sigs {
			if _, err := r.driver.StartDetection(entry.flow, sig, dir, entry.state); err != nil {
				r.logger.Warn().Err(err).Str("trace_id", entry.traceID.String()).Uint32("sid", uint32(sig.ID)).Msg("start detection aborted for flow")
				break
			}
		}
		entry.lastTxCnt = txCount
		return
	}

	if r.driver.HasInspectableState(entry.flow, dir, entry.lastVer[idx], entry.state) != 1 {
		return
	}
	if err := r.driver.ContinueDetection(entry.flow, dir, entry.state); err != nil {
		r.logger.Warn().Err(err).Str("trace_id", entry.traceID.String()).Msg("continue detection aborted for flow")
	}
}

// dirIndex maps a direction onto the flowEntry.lastVer slot tracking it.
func dirIndex(dir detect.Direction) int {
	if dir == detect.ToServer {
		return 0
	}
	return 1
}

// packetIPs extracts the source/destination addresses from whichever IP
// layer is present; returns nils for anything else (ARP, non-IP L2, etc).
func packetIPs(packet gopacket.Packet) (net.IP, net.IP) {
	if ip4 := packet.Layer(layers.LayerTypeIPv4); ip4 != nil {
		v := ip4.(*layers.IPv4)
		return v.SrcIP, v.DstIP
	}
	if ip6 := packet.Layer(layers.LayerTypeIPv6); ip6 != nil {
		v := ip6.(*layers.IPv6)
		return v.SrcIP, v.DstIP
	}
	return nil, nil
}
