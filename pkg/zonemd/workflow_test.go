package zonemd

import (
	"encoding/hex"
	"strings"

	"github.com/miekg/dns"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zonemd/digestify/pkg/zone"
)

var _ = Describe("ZONEMD workflow", func() {
	var z *zone.Zone

	zonemdKey := zone.SetKey{Rrtype: dns.TypeZONEMD}

	apexZonemd := func() *dns.ZONEMD {
		set := z.Lookup(exampleOrgZone, zonemdKey)
		Expect(set).NotTo(BeNil())
		Expect(set.Records).NotTo(BeEmpty())
		zrr, ok := set.Records[0].(*dns.ZONEMD)
		Expect(ok).To(BeTrue())
		return zrr
	}

	BeforeEach(func() {
		var err error
		z, err = zone.Parse(strings.NewReader(exampleOrg), exampleOrgZone, "test", NewRegistry())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Add", func() {
		It("inserts an all-zero placeholder with the SOA serial and TTL", func() {
			rec, err := Add(z, AlgorithmSHA384, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Serial).To(Equal(uint32(2024010100)))
			Expect(rec.Scheme).To(Equal(SchemeSimple))
			Expect(rec.Digest).To(HaveLen(48))
			Expect(rec.Digest).To(Equal(make([]byte, 48)))

			set := z.Lookup(exampleOrgZone, zonemdKey)
			Expect(set).NotTo(BeNil())
			Expect(set.TTL).To(Equal(uint32(3600)), "TTL defaults to the SOA RRset TTL")
			Expect(set.Records).To(HaveLen(1))
		})

		It("honors an explicit TTL", func() {
			_, err := Add(z, AlgorithmSHA512, 7200)
			Expect(err).NotTo(HaveOccurred())
			Expect(z.Lookup(exampleOrgZone, zonemdKey).TTL).To(Equal(uint32(7200)))
		})

		It("removes every existing ZONEMD record first", func() {
			_, err := Add(z, AlgorithmSHA384, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = Add(z, AlgorithmSHA512, 0)
			Expect(err).NotTo(HaveOccurred())

			set := z.Lookup(exampleOrgZone, zonemdKey)
			Expect(set.Records).To(HaveLen(1))
			Expect(apexZonemd().Hash).To(Equal(AlgorithmSHA512))
		})

		It("rejects unknown algorithms", func() {
			_, err := Add(z, 240, 0)
			Expect(err).To(MatchError(ErrUnknownAlgorithm))
		})

		It("requires an apex SOA", func() {
			empty := zone.New(exampleOrgZone, NewRegistry())
			Expect(empty.Insert(testNS())).To(Succeed())
			_, err := Add(empty, AlgorithmSHA384, 0)
			Expect(err).To(MatchError(ErrMissingApexSerial))
		})
	})

	Describe("Update", func() {
		It("requires the placeholder to be present", func() {
			_, err := Update(z, AlgorithmSHA384)
			Expect(err).To(MatchError(ErrMissingZonemdRecord))
		})

		It("computes a non-zero digest and leaves the serial alone", func() {
			_, err := Add(z, AlgorithmSHA384, 0)
			Expect(err).NotTo(HaveOccurred())
			rec, err := Update(z, AlgorithmSHA384)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Digest).To(HaveLen(48))
			Expect(rec.Digest).NotTo(Equal(make([]byte, 48)))
			Expect(rec.Serial).To(Equal(uint32(2024010100)))
		})

		It("changes the digest when any record TTL changes", func() {
			_, err := Add(z, AlgorithmSHA384, 0)
			Expect(err).NotTo(HaveOccurred())
			before, err := Update(z, AlgorithmSHA384)
			Expect(err).NotTo(HaveOccurred())

			set := z.Lookup("www.example.org.", zone.SetKey{Rrtype: dns.TypeCNAME})
			Expect(set).NotTo(BeNil())
			set.TTL = 60

			after, err := Update(z, AlgorithmSHA384)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Digest).NotTo(Equal(before.Digest))
		})
	})

	Describe("Validate", func() {
		BeforeEach(func() {
			_, err := Add(z, AlgorithmSHA384, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = Update(z, AlgorithmSHA384)
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts a correct digest", func() {
			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(BeEmpty())
			Expect(ok).To(BeTrue())
		})

		It("reports a missing record", func() {
			z.DeleteType(exampleOrgZone, dns.TypeZONEMD)
			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(reason).To(Equal("no ZONEMD record found"))
		})

		It("detects a tampered digest and restores the zone", func() {
			zrr := apexZonemd()
			want := zrr.Digest
			flipped := []byte(want)
			if flipped[0] == '0' {
				flipped[0] = '1'
			} else {
				flipped[0] = '0'
			}
			zrr.Digest = string(flipped)

			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(reason).To(ContainSubstring("digest mismatch for algorithm 1"))
			Expect(apexZonemd().Digest).To(Equal(string(flipped)), "Validate must not mutate the zone")
		})

		It("detects serial drift", func() {
			soa, _, err := z.SOA()
			Expect(err).NotTo(HaveOccurred())
			soa.Serial++

			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(reason).To(ContainSubstring("SOA serial 2024010101 does not match ZONEMD serial 2024010100"))
		})

		It("rejects a digest algorithm used more than once", func() {
			dup := (&Record{
				Serial:    2024010100,
				Scheme:    SchemeSimple,
				Algorithm: AlgorithmSHA384,
				Digest:    make([]byte, 48),
			}).RR(exampleOrgZone, dns.ClassINET, 3600)
			Expect(z.Insert(dup)).To(Succeed())

			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(reason).To(ContainSubstring("digest algorithm 1 used more than once"))
		})

		It("skips records with an unsupported scheme", func() {
			odd := (&Record{
				Serial:    2024010100,
				Scheme:    240,
				Algorithm: AlgorithmSHA384,
				Digest:    make([]byte, 48),
			}).RR(exampleOrgZone, dns.ClassINET, 3600)
			Expect(z.Insert(odd)).To(Succeed())

			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(BeEmpty())
			Expect(ok).To(BeTrue())
		})

		It("verifies every algorithm present", func() {
			second := (&Record{
				Serial:    2024010100,
				Scheme:    SchemeSimple,
				Algorithm: AlgorithmSHA512,
				Digest:    make([]byte, 64),
			}).RR(exampleOrgZone, dns.ClassINET, 3600)
			Expect(z.Insert(second)).To(Succeed())
			_, err := Update(z, AlgorithmSHA512)
			Expect(err).NotTo(HaveOccurred())

			ok, reason, err := Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(BeEmpty())
			Expect(ok).To(BeTrue())

			// Breaking one of the two must fail the whole zone.
			zrr := apexZonemd()
			digest, decodeErr := hex.DecodeString(zrr.Digest)
			Expect(decodeErr).NotTo(HaveOccurred())
			digest[0] ^= 0xff
			zrr.Digest = hex.EncodeToString(digest)
			ok, reason, err = Validate(z)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(reason).To(ContainSubstring("digest mismatch"))
		})
	})
})

func testNS() dns.RR {
	rr, err := dns.NewRR("example.org. 3600 IN NS ns1.example.org.")
	if err != nil {
		panic(err)
	}
	return rr
}
