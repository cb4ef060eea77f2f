package zonemd

const (
	exampleOrg = `; example.org test zone
$ORIGIN example.org.
@                      3600 SOA   ns1.example.org. (
                              admin.example.org.         ; address of responsible party
                              2024010100                 ; serial number
                              3600                       ; refresh period
                              600                        ; retry period
                              604800                     ; expire time
                              1800                     ) ; minimum ttl
                      86400 NS    ns1.example.org.
                      86400 NS    ns2.example.org.
                       3600 MX    10 mail.example.org.
                       3600 MX    20 vpn.example.org.
                       3600 TXT   "v=spf1 -all"
mail                  14400 A     204.13.248.106
vpn                      60 A     216.146.45.240
webapp                   60 A     216.146.46.10
webapp                   60 A     216.146.46.11
www                   43200 CNAME example.org.
`
	exampleOrgZone = "example.org."
)
