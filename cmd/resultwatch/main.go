// Command resultwatch tails game results from the NATS subject the server
// publishes on and prints human-readable summaries plus running aggregates:
// games seen, forfeit share, average moves, and the current win leaders.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/matchmind/memory-server/game/match"
	"github.com/matchmind/memory-server/results"
)

func main() {
	url := flag.String("url", nats.DefaultURL, "NATS server URL")
	subject := flag.String("subject", results.DefaultSubject, "Subject to subscribe to")
	every := flag.Int("report-every", 10, "Print aggregate report every N games (0 = never)")
	flag.Parse()

	conn, err := nats.Connect(*url, nats.Name("memory-resultwatch"))
	if err != nil {
		log.Fatalf("Failed to connect to NATS at %s: %v", *url, err)
	}
	defer conn.Close()

	t := newTracker()

	sub, err := conn.Subscribe(*subject, func(msg *nats.Msg) {
		var sum match.Summary
		if err := json.Unmarshal(msg.Data, &sum); err != nil {
			log.Printf("Skipping unparseable result: %v", err)
			return
		}

		t.record(&sum)
		fmt.Println(formatResult(&sum))

		if *every > 0 && t.games%*every == 0 {
			fmt.Println(t.report())
		}
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", *subject, err)
	}
	defer sub.Unsubscribe()

	log.Printf("Watching %s on %s", *subject, *url)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println(t.report())
}

// tracker accumulates aggregates over every result seen this run.
type tracker struct {
	games      int
	forfeits   int
	totalMoves int
	wins       map[string]int // winner name -> wins
}

func newTracker() *tracker {
	return &tracker{wins: make(map[string]int)}
}

func (t *tracker) record(sum *match.Summary) {
	t.games++
	t.totalMoves += sum.TotalMoves
	if sum.Reason == match.ReasonForfeit {
		t.forfeits++
	}
	if sum.WinnerName != "" {
		t.wins[sum.WinnerName]++
	}
}

// report renders the running aggregates.
func (t *tracker) report() string {
	if t.games == 0 {
		return "No games seen yet"
	}

	out := fmt.Sprintf("--- %d games: %.0f%% forfeits, %.1f moves avg",
		t.games,
		float64(t.forfeits)/float64(t.games)*100,
		float64(t.totalMoves)/float64(t.games))

	leaders := t.leaders(3)
	if len(leaders) > 0 {
		out += ", leaders:"
		for _, l := range leaders {
			out += fmt.Sprintf(" %s(%d)", l.name, l.wins)
		}
	}
	return out + " ---"
}

type leader struct {
	name string
	wins int
}

// leaders returns the top n winners, ties broken by name for stable output.
func (t *tracker) leaders(n int) []leader {
	all := make([]leader, 0, len(t.wins))
	for name, wins := range t.wins {
		all = append(all, leader{name: name, wins: wins})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].wins != all[j].wins {
			return all[i].wins > all[j].wins
		}
		return all[i].name < all[j].name
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// formatResult renders one game result on a single line.
func formatResult(sum *match.Summary) string {
	line := fmt.Sprintf("#%d %s", sum.SessionID, sum.Reason)
	if sum.WinnerName != "" {
		line += fmt.Sprintf(", winner %s", sum.WinnerName)
	}
	line += fmt.Sprintf(", %d moves", sum.TotalMoves)
	for _, p := range sum.Players {
		note := ""
		if p.Forfeited {
			note = "*"
		}
		line += fmt.Sprintf(" | %s%s %d", p.Name, note, p.PairsFound)
	}
	return line
}
