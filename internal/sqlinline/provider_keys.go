package sqlinline

const QListProviderKeys = `--sql 338c285c-1f5d-4fa4-81e6-66887e204f8a
select api_key
from provider_keys
where provider = $1::text
order by position, created_at;
`

const QInsertProviderKey = `--sql a7fd5e34-a2bb-4ddb-aff4-1d5d9574a389
insert into provider_keys (id, provider, position, api_key, created_at)
values (
  gen_random_uuid(),
  $1::text,
  coalesce((select max(position) + 1 from provider_keys where provider = $1::text), 0),
  $2::text,
  now()
)
on conflict (provider, api_key) do nothing;
`

const QDeleteProviderKeyAt = `--sql a85c20d3-d2a8-4151-b526-cc1e7e5ec6db
delete from provider_keys
where id = (
  select id
  from provider_keys
  where provider = $1::text
  order by position, created_at
  offset $2::int
  limit 1
);
`
