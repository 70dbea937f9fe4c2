package sqlinline

import "strings"

// TablePlaceholder is replaced with the quoted cache table name by ForTable.
const TablePlaceholder = "{{table}}"

const QCreateKVTable = `--sql 3c1f7a52-8e0d-4b6a-a9f4-1d27c5e8b093
create table if not exists {{table}} (
	key text primary key,
	value text not null,
	updated_at timestamptz not null default now()
);
`

const QSelectKV = `--sql 6a9e0b14-57c2-4d83-8f1e-c4b2a7d90e35
select value
from {{table}}
where key = $1::text;
`

const QUpsertKV = `--sql b8d24f6e-1a93-4c07-b5e2-7f0c3e19a6d4
insert into {{table}}(key, value, updated_at)
values ($1::text, $2::text, now())
on conflict (key) do update set value = excluded.value, updated_at = now();
`

const QDeleteKV = `--sql e21c9d73-4b5f-4a1e-8c06-93f7b2d4a518
delete from {{table}}
where key = $1::text;
`

// ForTable substitutes an already-quoted identifier into a cache statement.
func ForTable(query, quotedTable string) string {
	return strings.ReplaceAll(query, TablePlaceholder, quotedTable)
}
