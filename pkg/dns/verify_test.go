package dns

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func startTXTServer(t *testing.T, name, value string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if r.Question[0].Name == dns.Fqdn(name) {
			m.Answer = append(m.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
				Txt: []string{value},
			})
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestVerify(t *testing.T) {
	record := RecordName("admin.drogaria.com.br")
	addr := startTXTServer(t, record, "farmavida-abc")

	v := &Verifier{Resolvers: []string{addr}, Timeout: time.Second}

	require.NoError(t, v.Verify(context.Background(), record, "farmavida-abc"))
	require.Error(t, v.Verify(context.Background(), record, "farmavida-other"))
	require.Error(t, v.Verify(context.Background(), "", "x"))
}

func TestRecordName(t *testing.T) {
	require.Equal(t, "_farmavida-verification.loja.com", RecordName(" loja.com. "))
}
