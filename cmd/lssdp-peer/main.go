// Command lssdp-peer is an illustrative host for package ssdp: it wires
// the engine's host-facing contract (refresh interfaces, create socket,
// poll for readiness, read, periodically announce and sweep) the way
// spec.md §5 describes the cooperative, single-threaded driving loop.
// Not prescribed by the engine - a real integration owns its own timer
// source and event loop; this is one reasonable shape for it, grounded on
// beacon's examples/multi-interface-demo/main.go signal-handling pattern.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lssdp/lssdp-go/internal/logging"
	"github.com/lssdp/lssdp-go/ssdp"
)

func main() {
	port := flag.Int("port", 1900, "SSDP port")
	st := flag.String("st", "ST_P2P", "search target to advertise and filter on")
	usn := flag.String("usn", defaultUSN(), "unique service name")
	locationPort := flag.Int("location-port", 0, "port advertised in LOCATION (0 omits it)")
	neighborTimeout := flag.Duration("neighbor-timeout", 15*time.Second, "neighbor eviction threshold")
	notifyEvery := flag.Duration("notify-every", 30*time.Second, "NOTIFY announcement interval")
	msearchEvery := flag.Duration("msearch-every", 0, "M-SEARCH interval (0 disables active discovery)")
	flag.Parse()

	peer, err := ssdp.New(
		ssdp.WithPort(*port),
		ssdp.WithNeighborTimeout(neighborTimeout.Milliseconds()),
		ssdp.WithHeader(ssdp.Header{
			SearchTarget: *st,
			USN:          *usn,
			Location:     ssdp.Location{Port: *locationPort},
		}),
		ssdp.WithLogFunc(stdoutLogger),
		ssdp.WithNetworkInterfaceChanged(func() {
			log.Println("interface set changed, recreating receive socket")
			if err := peerRef.CreateSocket(); err != nil {
				log.Printf("failed to recreate receive socket: %v", err)
			}
		}),
		ssdp.WithNeighborListChanged(func() {
			log.Println("neighbor list changed")
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct peer: %v\n", err)
		os.Exit(1)
	}
	peerRef = peer

	if err := peer.RefreshInterfaces(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to enumerate interfaces: %v\n", err)
		os.Exit(1)
	}
	if err := peer.CreateSocket(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create receive socket: %v\n", err)
		os.Exit(1)
	}
	defer peer.Close()

	for _, i := range peer.Interfaces() {
		log.Printf("interface: %s %s", i.Name, i.IP)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	readTicker := time.NewTicker(50 * time.Millisecond)
	defer readTicker.Stop()
	notifyTicker := time.NewTicker(*notifyEvery)
	defer notifyTicker.Stop()
	sweepTicker := time.NewTicker(time.Second)
	defer sweepTicker.Stop()

	var msearchTicker *time.Ticker
	var msearchC <-chan time.Time
	if *msearchEvery > 0 {
		msearchTicker = time.NewTicker(*msearchEvery)
		defer msearchTicker.Stop()
		msearchC = msearchTicker.C
	}

	if err := peer.SendNotify(); err != nil {
		log.Printf("initial send_notify failed: %v", err)
	}

	for {
		select {
		case <-sigCh:
			log.Println("shutting down")
			return
		case <-readTicker.C:
			if err := peer.Read(); err != nil {
				// Read errors are not reported here: a read timeout is the
				// normal outcome when nothing arrived in the poll interval,
				// and the loop simply polls again on the next tick.
				continue
			}
		case <-notifyTicker.C:
			if err := peer.SendNotify(); err != nil {
				log.Printf("send_notify failed: %v", err)
			}
		case <-sweepTicker.C:
			peer.CheckTimeouts()
		case <-msearchC:
			if err := peer.SendMSearch(); err != nil {
				log.Printf("send_msearch failed: %v", err)
			}
		}
	}
}

// peerRef lets the NetworkInterfaceChanged callback reach back into the
// peer it belongs to without capturing a not-yet-constructed variable.
var peerRef *ssdp.Peer

func stdoutLogger(file, tag string, level logging.Level, line int, function, message string) {
	log.Printf("[%s] %s %s:%d %s: %s", level, tag, file, line, function, message)
}

func defaultUSN() string {
	host, err := os.Hostname()
	if err != nil {
		return "lssdp-peer"
	}
	return host
}
